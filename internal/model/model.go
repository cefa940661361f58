// Package model defines the relational entities persisted by the
// synchronizers, matching the teams/players/games schema.
package model

import "time"

// Team mirrors the teams table.
type Team struct {
	TeamID             int
	Abbreviation       string
	Nickname           string
	YearFounded        int
	City               string
	Arena              string
	ArenaCapacity      string
	Owner              string
	GeneralManager     string
	HeadCoach          string
	DLeagueAffiliation string
	TeamSlug           string
	Logo               []byte
	UpdatedAt          time.Time
}

// Player mirrors the players table.
type Player struct {
	PersonID               int
	DisplayLastCommaFirst   string
	DisplayFirstLast        string
	RosterStatus            int
	FromYear                string
	ToYear                  string
	PlayerSlug              string
	TeamID                  *int // nil = free agent
	GamesPlayedFlag         string
	UpdatedAt               time.Time
}

// TeamSnapshot is the per-game embedded team record (home or away side).
type TeamSnapshot struct {
	TeamID   int
	Name     string
	City     string
	Tricode  string
	Slug     string
	Wins     int
	Losses   int
	Score    int
	Seed     int
}

// PointsLeader is the per-game scoring-leader snapshot.
type PointsLeader struct {
	PersonID  int
	FirstName string
	LastName  string
	TeamID    int
	Points    float64
}

// Game mirrors the games table.
type Game struct {
	GameID             string
	GameCode           string
	GameStatus         int
	GameStatusText     string
	GameDateEST        string
	GameTimeEST        string
	GameDateTimeEST    time.Time
	GameDateUTC        string
	GameTimeUTC        string
	GameDateTimeUTC    time.Time
	GameDate           string
	SeasonYear         string
	WeekNumber         int
	WeekName           string
	SeriesGameNumber   string
	IfNecessary        bool
	SeriesText         string
	ArenaName          string
	ArenaCity          string
	ArenaState         string
	ArenaIsNeutral     bool

	Home TeamSnapshot
	Away TeamSnapshot

	PointsLeader *PointsLeader

	GameType       string
	GameSubType    string
	GameLabel      string
	GameSubLabel   string
	PostponedStatus string

	GameDateBJS     string
	GameTimeBJS     string
	GameDateTimeBJS time.Time

	UpdatedAt time.Time
}

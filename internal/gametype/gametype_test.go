package gametype

import "testing"

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		seriesText string
		want       string
	}{
		{"plain regular season", "Regular Season", RegularSeason},
		{"empty string", "", RegularSeason},
		{"preseason", "Preseason", Preseason},
		{"play-in", "Play-In Game", PlayIn},
		{"all-star", "All-Star Game", AllStar},
		{"playoffs label", "Playoffs", Playoffs},
		{"series leads marker", "Lakers leads series 2-1", Playoffs},
		{"series tied marker", "Series tied 2-2", Playoffs},
		{"series won marker", "Celtics won series 4-1", Playoffs},
		{"preseason wins over playoff marker", "Preseason, Lakers leads series 1-0", Preseason},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tc.seriesText); got != tc.want {
				t.Fatalf("Classify(%q) = %q, want %q", tc.seriesText, got, tc.want)
			}
		})
	}
}

package progress

import (
	"errors"
	"os"
	"testing"
)

func TestTracker_MarkCompleted_RemovesFromFailed(t *testing.T) {
	t.Parallel()

	tr, err := New(t.TempDir(), "schedule-2024-25")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := tr.MarkFailed("0022400001", errors.New("timeout")); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if err := tr.MarkCompleted("0022400001"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	if !tr.IsCompleted("0022400001") {
		t.Fatalf("expected id to be completed")
	}
	_, failed := tr.Counts()
	if failed != 0 {
		t.Fatalf("failed count = %d, want 0 (completed must clear failed)", failed)
	}
}

func TestTracker_MarkFailed_DoesNotDemoteCompleted(t *testing.T) {
	t.Parallel()

	tr, err := New(t.TempDir(), "teams")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := tr.MarkCompleted("1610612747"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if err := tr.MarkFailed("1610612747", errors.New("stale retry")); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	if !tr.IsCompleted("1610612747") {
		t.Fatalf("a completed id must never be demoted back to failed")
	}
	completed, failed := tr.Counts()
	if completed != 1 || failed != 0 {
		t.Fatalf("counts = (%d, %d), want (1, 0)", completed, failed)
	}
}

func TestTracker_Pending_ExcludesCompletedPreservingOrder(t *testing.T) {
	t.Parallel()

	tr, err := New(t.TempDir(), "players")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tr.MarkCompleted("b"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	got := tr.Pending([]string{"a", "b", "c"})
	want := []string{"a", "c"}
	if len(got) != len(want) {
		t.Fatalf("Pending = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Pending = %v, want %v", got, want)
		}
	}
}

func TestTracker_New_ResumesFromDisk(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	first, err := New(root, "schedule")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := first.MarkCompleted("0022400010"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	second, err := New(root, "schedule")
	if err != nil {
		t.Fatalf("New (resume): %v", err)
	}
	if !second.IsCompleted("0022400010") {
		t.Fatalf("expected resumed tracker to see prior progress")
	}
}

func TestTracker_Reset_ClearsAllState(t *testing.T) {
	t.Parallel()

	tr, err := New(t.TempDir(), "games")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tr.MarkCompleted("x"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if err := tr.MarkFailed("y", errors.New("boom")); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	if err := tr.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	completed, failed := tr.Counts()
	if completed != 0 || failed != 0 {
		t.Fatalf("counts after reset = (%d, %d), want (0, 0)", completed, failed)
	}
}

func TestTracker_New_CorruptFileStartsFresh(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	tr, err := New(root, "bootstrap")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tr.MarkCompleted("only-to-create-file"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	// Overwrite with garbage; a fresh New() must not error, just reset state.
	if err := os.WriteFile(tr.path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	reloaded, err := New(root, "bootstrap")
	if err != nil {
		t.Fatalf("New over corrupt file: %v", err)
	}
	completed, failed := reloaded.Counts()
	if completed != 0 || failed != 0 {
		t.Fatalf("expected corrupt progress file to reset to empty state, got (%d, %d)", completed, failed)
	}
}


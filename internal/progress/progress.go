// Package progress implements resumable batch-job bookkeeping: which ids in
// a batch have completed, which have failed, and the invariant that no id
// is ever in both sets at once.
//
// Grounded on nba/fetcher/base_fetcher.py's BatchRequestTracker.
package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// state is the on-disk shape of a tracker's progress file.
type state struct {
	Completed map[string]struct{} `json:"completed"`
	Failed    map[string]string   `json:"failed"` // id -> last error message
}

func newState() state {
	return state{
		Completed: make(map[string]struct{}),
		Failed:    make(map[string]string),
	}
}

// Tracker persists the progress of one named batch task to a single JSON
// file under root.
type Tracker struct {
	path string
	mu   sync.Mutex
	st   state
}

// New loads (or initializes) the progress file for taskName under root.
func New(root, taskName string) (*Tracker, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create progress root %s: %w", root, err)
	}
	t := &Tracker{
		path: filepath.Join(root, "progress_"+taskName+".json"),
		st:   newState(),
	}

	raw, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("read progress file: %w", err)
	}
	if err := json.Unmarshal(raw, &t.st); err != nil {
		// A corrupt progress file is treated as "start fresh" rather than
		// a fatal error: resumability is a best-effort optimization.
		t.st = newState()
	}
	if t.st.Completed == nil {
		t.st.Completed = make(map[string]struct{})
	}
	if t.st.Failed == nil {
		t.st.Failed = make(map[string]string)
	}
	return t, nil
}

// MarkCompleted records id as completed and removes it from the failed set,
// preserving the completed ∩ failed = ∅ invariant.
func (t *Tracker) MarkCompleted(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.st.Completed[id] = struct{}{}
	delete(t.st.Failed, id)
	return t.save()
}

// MarkFailed records id as failed with cause, unless it is already marked
// completed (a completed id is never demoted back to failed).
func (t *Tracker) MarkFailed(id string, cause error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, done := t.st.Completed[id]; done {
		return nil
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	t.st.Failed[id] = msg
	return t.save()
}

// IsCompleted reports whether id has already completed successfully.
func (t *Tracker) IsCompleted(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.st.Completed[id]
	return ok
}

// Pending returns the subset of ids not yet marked completed, preserving
// input order.
func (t *Tracker) Pending(ids []string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, done := t.st.Completed[id]; !done {
			out = append(out, id)
		}
	}
	return out
}

// Counts returns the number of completed and failed ids.
func (t *Tracker) Counts() (completed, failed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.st.Completed), len(t.st.Failed)
}

// Reset discards all tracked progress for this task.
func (t *Tracker) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.st = newState()
	return t.save()
}

// save persists the current state atomically (temp file + rename) so a
// crash mid-write never corrupts the progress file a resumed run reads.
func (t *Tracker) save() error {
	buf, err := json.Marshal(t.st)
	if err != nil {
		return fmt.Errorf("marshal progress state: %w", err)
	}

	dir := filepath.Dir(t.path)
	tmp, err := os.CreateTemp(dir, ".tmp-progress-*")
	if err != nil {
		return fmt.Errorf("create temp progress file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp progress file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp progress file: %w", err)
	}
	if err := os.Rename(tmpName, t.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename progress file into place: %w", err)
	}
	return nil
}

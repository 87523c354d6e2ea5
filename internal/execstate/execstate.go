// Package execstate implements the single-file execution-state tracker: a
// tiny record describing which task is currently being worked on and
// where, read/written with the same ednl codec used for task records.
package execstate

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/untoldecay/mcp-tasks/internal/ednl"
)

const fileName = ".mcp-tasks-current.edn"

// State is the decoded contents of the execution-state file.
type State struct {
	TaskID    int
	StoryID   *int
	StartedAt string // ISO-8601
}

// Path returns the execution-state file path for a working copy directory
// (either the main repo base dir or a worktree's base dir).
func Path(workingCopyDir string) string {
	return filepath.Join(workingCopyDir, fileName)
}

// Read loads the execution-state file, returning (nil, false, nil) if it
// does not exist (absence means no task is currently in progress).
func Read(workingCopyDir string) (*State, bool, error) {
	path := Path(workingCopyDir)
	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("execstate: reading %s: %w", path, err)
	}
	v, err := ednl.ParseLine(string(contents))
	if err != nil {
		return nil, false, fmt.Errorf("execstate: parsing %s: %w", path, err)
	}
	m, err := ednl.AsMap(v)
	if err != nil {
		return nil, false, fmt.Errorf("execstate: %s: %w", path, err)
	}

	st := &State{}
	idVal, ok := m.Get("task-id")
	if !ok {
		return nil, false, fmt.Errorf("execstate: %s missing :task-id", path)
	}
	id, err := ednl.AsInt(idVal)
	if err != nil {
		return nil, false, fmt.Errorf("execstate: %s :task-id: %w", path, err)
	}
	st.TaskID = int(id)

	if sidVal, ok := m.Get("story-id"); ok && sidVal != nil {
		sid, err := ednl.AsInt(sidVal)
		if err != nil {
			return nil, false, fmt.Errorf("execstate: %s :story-id: %w", path, err)
		}
		sidInt := int(sid)
		st.StoryID = &sidInt
	}

	if saVal, ok := m.Get("started-at"); ok {
		sa, err := ednl.AsString(saVal)
		if err != nil {
			return nil, false, fmt.Errorf("execstate: %s :started-at: %w", path, err)
		}
		st.StartedAt = sa
	}

	return st, true, nil
}

// Write records st into workingCopyDir's execution-state file, creating or
// overwriting it.
func Write(workingCopyDir string, st *State) error {
	m := &ednl.Map{}
	m.Set("task-id", int64(st.TaskID))
	if st.StoryID != nil {
		m.Set("story-id", int64(*st.StoryID))
	} else {
		m.Set("story-id", nil)
	}
	startedAt := st.StartedAt
	if startedAt == "" {
		startedAt = time.Now().UTC().Format(time.RFC3339)
	}
	m.Set("started-at", startedAt)
	return os.WriteFile(Path(workingCopyDir), []byte(ednl.EncodeLine(m)+"\n"), 0o644)
}

// Clear removes the execution-state file, if present (a missing file is
// not an error: complete-task may race a manual deletion).
func Clear(workingCopyDir string) error {
	err := os.Remove(Path(workingCopyDir))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("execstate: removing %s: %w", Path(workingCopyDir), err)
	}
	return nil
}

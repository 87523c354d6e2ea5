// Package store implements the in-memory task index: primary key by id,
// secondary parent/child indices, and the single-writer mutate gate, as an
// owned struct holding maps guarded by a mutex rather than process-wide
// mutable atoms.
package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/untoldecay/mcp-tasks/internal/config"
	"github.com/untoldecay/mcp-tasks/internal/ednl"
	"github.com/untoldecay/mcp-tasks/internal/types"
)

// Store is the task engine's single in-memory index, backed by two record
// files (active and archived). All mutations pass through Mutate, which
// holds mu for the whole compute-then-serialize sequence so the on-disk
// files and in-memory state never diverge under concurrent tool calls.
type Store struct {
	mu sync.Mutex

	tasksPath    string
	completePath string

	byID     map[int]*types.Task
	children map[int][]int // parent id -> child ids, ascending id order
	archived map[int]bool  // true if task currently lives in complete.ednl

	nextID int
}

// New returns an empty store bound to the two record files named by cfg.
func New(cfg *config.Config) *Store {
	return &Store{
		tasksPath:    cfg.TasksFile(),
		completePath: cfg.CompleteFile(),
		byID:         make(map[int]*types.Task),
		children:     make(map[int][]int),
		archived:     make(map[int]bool),
		nextID:       1,
	}
}

// Load reads both record files and rebuilds every index from scratch.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() error {
	active, err := readTasks(s.tasksPath)
	if err != nil {
		return fmt.Errorf("store: loading %s: %w", s.tasksPath, err)
	}
	archived, err := readTasks(s.completePath)
	if err != nil {
		return fmt.Errorf("store: loading %s: %w", s.completePath, err)
	}

	byID := make(map[int]*types.Task, len(active)+len(archived))
	children := make(map[int][]int)
	archivedSet := make(map[int]bool, len(archived))
	maxID := 0

	for _, t := range active {
		if _, dup := byID[t.ID]; dup {
			return fmt.Errorf("store: duplicate task id %d", t.ID)
		}
		byID[t.ID] = t
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	for _, t := range archived {
		if _, dup := byID[t.ID]; dup {
			return fmt.Errorf("store: duplicate task id %d", t.ID)
		}
		byID[t.ID] = t
		archivedSet[t.ID] = true
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	for id, t := range byID {
		if t.ParentID != nil {
			children[*t.ParentID] = append(children[*t.ParentID], id)
		}
	}
	for _, ids := range children {
		sort.Ints(ids)
	}

	s.byID = byID
	s.children = children
	s.archived = archivedSet
	s.nextID = maxID + 1
	return nil
}

func readTasks(path string) ([]*types.Task, error) {
	records, err := ednl.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tasks := make([]*types.Task, 0, len(records))
	for i, rec := range records {
		t, err := ednl.FromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+1, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// All returns a snapshot copy of every task, active and archived.
func (s *Store) All() []*types.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.Task, 0, len(s.byID))
	for _, t := range s.byID {
		out = append(out, t.Clone())
	}
	return out
}

// ByID returns a copy of the task with the given id, or false if absent.
func (s *Store) ByID(id int) (*types.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// ChildrenOf returns the ids of tasks whose parent-id is id, in ascending id
// order (which is creation order, since ids are assigned monotonically).
func (s *Store) ChildrenOf(id int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.children[id]...)
}

// ParentOf returns the parent id of task id, if any.
func (s *Store) ParentOf(id int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok || t.ParentID == nil {
		return 0, false
	}
	return *t.ParentID, true
}

// IsArchived reports whether id currently lives in complete.ednl.
func (s *Store) IsArchived(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.archived[id]
}

// NextID returns the id that would be assigned to a newly created task,
// without reserving it. Mutations reserve it by taking Snapshot.NextID
// inside the MutateFunc.
func (s *Store) NextID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

// Snapshot is the pure value a mutation validates and transforms: a full
// copy of every task (keyed by id), which of those ids are archived (live
// in complete.ednl rather than tasks.ednl), and the next-id counter.
// MutateFunc never sees the live store, only this copy, so a validation
// failure leaves the store untouched.
type Snapshot struct {
	Tasks    map[int]*types.Task
	Archived map[int]bool
	NextID   int
}

// snapshotLocked must be called with s.mu held.
func (s *Store) snapshotLocked() Snapshot {
	tasks := make(map[int]*types.Task, len(s.byID))
	for id, t := range s.byID {
		tasks[id] = t.Clone()
	}
	archived := make(map[int]bool, len(s.archived))
	for id := range s.archived {
		archived[id] = true
	}
	return Snapshot{Tasks: tasks, Archived: archived, NextID: s.nextID}
}

// Snapshot returns a deep copy of the current state for validation.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// MutateFunc computes a new snapshot from the current one, or returns an
// error to abort the mutation with no effect.
type MutateFunc func(Snapshot) (Snapshot, error)

// Mutate applies fn to the current snapshot under the single-writer gate.
// On success the new snapshot is written to both record files and swapped
// into memory; on failure the store is left untouched and the files are
// not rewritten.
func (s *Store) Mutate(fn MutateFunc) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.snapshotLocked()
	next, err := fn(current)
	if err != nil {
		return Snapshot{}, err
	}

	ids := make([]int, 0, len(next.Tasks))
	for id := range next.Tasks {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var activeRecords, archivedRecords []*ednl.Map
	children := make(map[int][]int)
	maxID := 0
	for _, id := range ids {
		t := next.Tasks[id]
		rec := ednl.ToRecord(t)
		if next.Archived[id] {
			archivedRecords = append(archivedRecords, rec)
		} else {
			activeRecords = append(activeRecords, rec)
		}
		if t.ParentID != nil {
			children[*t.ParentID] = append(children[*t.ParentID], id)
		}
		if id > maxID {
			maxID = id
		}
	}
	if next.NextID <= maxID {
		next.NextID = maxID + 1
	}

	if err := ednl.WriteFile(s.tasksPath, activeRecords); err != nil {
		return Snapshot{}, fmt.Errorf("store: writing %s: %w", s.tasksPath, err)
	}
	if err := ednl.WriteFile(s.completePath, archivedRecords); err != nil {
		return Snapshot{}, fmt.Errorf("store: writing %s: %w", s.completePath, err)
	}

	s.byID = next.Tasks
	s.archived = next.Archived
	s.children = children
	s.nextID = next.NextID

	return s.snapshotLocked(), nil
}

// TasksPath and CompletePath expose the bound file paths, e.g. for git
// staging after a successful Mutate.
func (s *Store) TasksPath() string    { return s.tasksPath }
func (s *Store) CompletePath() string { return s.completePath }

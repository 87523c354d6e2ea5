// Package validate implements the schema, referential-integrity, and
// cycle checks as small composable functions of the TaskValidator shape,
// composed with Chain rather than one monolithic function.
package validate

import (
	"fmt"
	"sort"

	"github.com/untoldecay/mcp-tasks/internal/apperr"
	"github.com/untoldecay/mcp-tasks/internal/ednl"
	"github.com/untoldecay/mcp-tasks/internal/types"
)

// SharedContextLimit and SessionEventsLimit are the serialized-size
// boundaries, in bytes of the encoded vector.
const (
	SharedContextLimit = 50 * 1024
	SessionEventsLimit = 50 * 1024
)

// TaskValidator checks one task against the rest of a snapshot's tasks.
// Composable with Chain.
type TaskValidator func(t *types.Task, all map[int]*types.Task) error

// Chain runs validators in order, stopping at the first error.
func Chain(validators ...TaskValidator) TaskValidator {
	return func(t *types.Task, all map[int]*types.Task) error {
		for _, v := range validators {
			if err := v(t, all); err != nil {
				return err
			}
		}
		return nil
	}
}

// FieldsValid checks required-field presence and enum membership.
func FieldsValid() TaskValidator {
	return func(t *types.Task, all map[int]*types.Task) error {
		if t.Title == "" {
			return apperr.New(apperr.InvalidInput, "title must not be empty", "task-id", t.ID)
		}
		if !t.Type.IsValid() {
			return apperr.New(apperr.InvalidInput, fmt.Sprintf("invalid task type %q", t.Type), "task-id", t.ID, "type", string(t.Type))
		}
		if !t.Status.IsValid() {
			return apperr.New(apperr.InvalidInput, fmt.Sprintf("invalid status %q", t.Status), "task-id", t.ID, "status", string(t.Status))
		}
		for _, rel := range t.Relations {
			if !rel.AsType.IsValid() {
				return apperr.New(apperr.InvalidInput, fmt.Sprintf("invalid relation type %q", rel.AsType), "task-id", t.ID, "relation-id", rel.ID)
			}
		}
		for _, ev := range t.SessionEvents {
			if !ev.EventType.IsValid() {
				return apperr.New(apperr.InvalidInput, fmt.Sprintf("invalid session event type %q", ev.EventType), "task-id", t.ID)
			}
		}
		return nil
	}
}

// ParentIsStory checks that parent-id, if set, references an existing task
// of type story.
func ParentIsStory() TaskValidator {
	return func(t *types.Task, all map[int]*types.Task) error {
		if t.ParentID == nil {
			return nil
		}
		parent, ok := all[*t.ParentID]
		if !ok {
			return apperr.New(apperr.Integrity, fmt.Sprintf("parent task %d does not exist", *t.ParentID), "task-id", t.ID, "parent-id", *t.ParentID)
		}
		if parent.Type != types.TypeStory {
			return apperr.New(apperr.Integrity, fmt.Sprintf("parent task %d is not a story", *t.ParentID), "task-id", t.ID, "parent-id", *t.ParentID)
		}
		return nil
	}
}

// RelationsReferenceExisting checks every relation's relates-to id exists.
func RelationsReferenceExisting() TaskValidator {
	return func(t *types.Task, all map[int]*types.Task) error {
		var missing []int
		for _, rel := range t.Relations {
			if _, ok := all[rel.RelatesTo]; !ok {
				missing = append(missing, rel.RelatesTo)
			}
		}
		if len(missing) > 0 {
			return apperr.New(apperr.Integrity, fmt.Sprintf("task %d references missing tasks", t.ID), "task-id", t.ID, "missing-ids", missing)
		}
		return nil
	}
}

// SizeLimits checks the serialized-size boundaries on shared-context and
// session-events: exactly 50 KB is accepted, 50KB+1 is not.
func SizeLimits() TaskValidator {
	return func(t *types.Task, all map[int]*types.Task) error {
		if len(t.SharedContext) > 0 {
			size := serializedSize(stringsToValues(t.SharedContext))
			if size > SharedContextLimit {
				return apperr.New(apperr.SizeLimit, fmt.Sprintf("task %d shared-context exceeds %d bytes", t.ID, SharedContextLimit), "task-id", t.ID, "size", size)
			}
		}
		if len(t.SessionEvents) > 0 {
			vals := make([]ednl.Value, len(t.SessionEvents))
			for i, ev := range t.SessionEvents {
				m := &ednl.Map{}
				m.Set("timestamp", ev.Timestamp)
				m.Set("event-type", ednl.Keyword(ev.EventType))
				for k, v := range ev.Extra {
					m.Set(k, v)
				}
				vals[i] = m
			}
			size := serializedSize(vals)
			if size > SessionEventsLimit {
				return apperr.New(apperr.SizeLimit, fmt.Sprintf("task %d session-events exceeds %d bytes", t.ID, SessionEventsLimit), "task-id", t.ID, "size", size)
			}
		}
		return nil
	}
}

func stringsToValues(ss []string) []ednl.Value {
	vals := make([]ednl.Value, len(ss))
	for i, s := range ss {
		vals[i] = s
	}
	return vals
}

func serializedSize(vals []ednl.Value) int {
	return len(ednl.EncodeLine(ednl.Value(vals)))
}

// Standard returns the full per-field validator chain applied on every
// create/update, before any cycle check.
func Standard() TaskValidator {
	return Chain(
		FieldsValid(),
		ParentIsStory(),
		RelationsReferenceExisting(),
		SizeLimits(),
	)
}

// DetectCycle runs a depth-first search over the union blocked-by graph of
// all tasks and returns a structured cycle error if a cycle passes through
// any of the given starting ids. A cycle that is reachable from a starting
// id but does not contain one is not reported. The returned path begins
// and ends with the same id.
func DetectCycle(all map[int]*types.Task, startIDs []int) error {
	edges := make(map[int][]int, len(all))
	for id, t := range all {
		for _, rel := range t.Relations {
			if rel.AsType == types.RelationBlockedBy {
				edges[id] = append(edges[id], rel.RelatesTo)
			}
		}
	}

	for _, start := range startIDs {
		visited := make(map[int]bool)
		path := []int{start}
		if cyclePath := dfsDetect(start, start, edges, visited, path); cyclePath != nil {
			return apperr.New(apperr.Cycle, fmt.Sprintf("blocked-by cycle detected starting at task %d", start), "cycle", cyclePath)
		}
	}
	return nil
}

func dfsDetect(origin, node int, edges map[int][]int, visited map[int]bool, path []int) []int {
	visited[node] = true
	for _, next := range edges[node] {
		if next == origin {
			return append(append([]int{}, path...), next)
		}
		if visited[next] {
			continue
		}
		if cyclePath := dfsDetect(origin, next, edges, visited, append(path, next)); cyclePath != nil {
			return cyclePath
		}
	}
	return nil
}

// BlockedStatus is the per-task result of batch blocked-status computation.
type BlockedStatus struct {
	Blocked            bool
	BlockingIDs         []int
	CircularDependency bool
}

// BatchBlockedStatus computes, for every id in ids, whether it is
// transitively blocked-by a task that is not closed/deleted, in a single
// O(V+E) traversal over the union blocked-by graph. Results
// must equal computing each task individually.
func BatchBlockedStatus(all map[int]*types.Task, ids []int) map[int]BlockedStatus {
	edges := make(map[int][]int, len(all))
	for id, t := range all {
		for _, rel := range t.Relations {
			if rel.AsType == types.RelationBlockedBy {
				edges[id] = append(edges[id], rel.RelatesTo)
			}
		}
	}

	results := make(map[int]BlockedStatus, len(ids))
	memo := make(map[int]BlockedStatus)
	for _, id := range ids {
		results[id] = computeBlocked(id, all, edges, memo, map[int]bool{})
	}
	return results
}

// computeBlocked determines whether id is blocked and, if so, the set of
// "root" blockers: ancestors reached via blocked-by that are themselves
// non-terminal (open/in-progress/blocked) and not in turn blocked by
// anything. An intermediate ancestor that is itself blocked is not listed
// directly; its own root blockers are propagated up instead, so closing the
// immediate blocker reveals the next one rather than ever listing both at
// once.
func computeBlocked(id int, all map[int]*types.Task, edges map[int][]int, memo map[int]BlockedStatus, onStack map[int]bool) BlockedStatus {
	if res, ok := memo[id]; ok {
		return res
	}
	if onStack[id] {
		return BlockedStatus{CircularDependency: true}
	}
	onStack[id] = true
	defer delete(onStack, id)

	blockingSet := make(map[int]bool)
	circular := false
	for _, dep := range edges[id] {
		depTask, ok := all[dep]
		if !ok {
			continue
		}
		if depTask.Status == types.StatusClosed || depTask.Status == types.StatusDeleted {
			continue
		}
		sub := computeBlocked(dep, all, edges, memo, onStack)
		if sub.CircularDependency {
			circular = true
		}
		if sub.Blocked {
			for _, id := range sub.BlockingIDs {
				blockingSet[id] = true
			}
		} else {
			blockingSet[dep] = true
		}
	}
	blocking := make([]int, 0, len(blockingSet))
	for id := range blockingSet {
		blocking = append(blocking, id)
	}
	sort.Ints(blocking)
	res := BlockedStatus{
		Blocked:            len(blocking) > 0,
		BlockingIDs:        blocking,
		CircularDependency: circular,
	}
	memo[id] = res
	return res
}

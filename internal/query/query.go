// Package query implements select-tasks: filtering, limiting, and
// blocked-status enrichment over a task snapshot.
package query

import (
	"sort"

	"github.com/untoldecay/mcp-tasks/internal/apperr"
	"github.com/untoldecay/mcp-tasks/internal/types"
	"github.com/untoldecay/mcp-tasks/internal/validate"
)

// Params is select-tasks's filter set. A nil pointer/empty string means the
// caller did not constrain that dimension.
type Params struct {
	TaskID       *int
	ParentID     *int
	Category     string
	Type         types.TaskType
	Status       types.Status // defaults to StatusOpen when empty
	TitlePattern string       // exact match
	Limit        int          // defaults to 5 when zero
	Unique       bool
}

// Result is select-tasks's reply shape.
type Result struct {
	Tasks    []*EnrichedTask
	Metadata Metadata
}

// EnrichedTask is a task plus blocked-status enrichment, attached only when
// the task has a blocked-by relation.
type EnrichedTask struct {
	*types.Task
	Blocked            *bool `json:"blocked?,omitempty"`
	BlockingIDs        []int `json:"blocking-ids,omitempty"`
	CircularDependency *bool `json:"circular-dependency,omitempty"`
}

// Metadata is select-tasks's summary block.
type Metadata struct {
	OpenTaskCount      int
	CompletedTaskCount *int // present only when ParentID was supplied
	ReturnedCount      int
	TotalMatches       int
	Limited            bool
}

// Select filters all against params and returns the matching page plus
// summary metadata, enriched with blocked-status where relevant.
func Select(all map[int]*types.Task, params Params) (*Result, error) {
	limit := params.Limit
	if limit == 0 {
		limit = 5
	}
	status := params.Status
	if status == "" {
		status = types.StatusOpen
	}

	var candidates []*types.Task
	for _, t := range all {
		if matchesNonStatus(t, params) {
			candidates = append(candidates, t)
		}
	}

	var matches []*types.Task
	openCount := 0
	for _, t := range candidates {
		if t.Status == types.StatusOpen {
			openCount++
		}
		if t.Status != status {
			continue
		}
		matches = append(matches, t)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })

	if params.Unique {
		if len(matches) > 1 {
			return nil, apperr.New(apperr.Ambiguous, "unique=true but more than one task matched the filter", "count", len(matches))
		}
		if limit > 1 {
			return nil, apperr.New(apperr.InvalidInput, "unique=true is incompatible with limit>1", "limit", limit)
		}
	}

	total := len(matches)
	returned := matches
	if len(returned) > limit {
		returned = returned[:limit]
	}

	meta := Metadata{
		OpenTaskCount: openCount,
		ReturnedCount: len(returned),
		TotalMatches:  total,
		Limited:       len(returned) < total,
	}
	if params.ParentID != nil {
		completed := 0
		for _, t := range all {
			if t.ParentID != nil && *t.ParentID == *params.ParentID &&
				(t.Status == types.StatusClosed || t.Status == types.StatusDeleted) {
				completed++
			}
		}
		meta.CompletedTaskCount = &completed
	}

	enrichIDs := make([]int, 0, len(returned))
	for _, t := range returned {
		if hasBlockedBy(t) {
			enrichIDs = append(enrichIDs, t.ID)
		}
	}
	statuses := validate.BatchBlockedStatus(all, enrichIDs)

	out := make([]*EnrichedTask, 0, len(returned))
	for _, t := range returned {
		et := &EnrichedTask{Task: t}
		if bs, ok := statuses[t.ID]; ok {
			blocked := bs.Blocked
			circular := bs.CircularDependency
			et.Blocked = &blocked
			et.BlockingIDs = bs.BlockingIDs
			et.CircularDependency = &circular
		}
		out = append(out, et)
	}

	return &Result{Tasks: out, Metadata: meta}, nil
}

// matchesNonStatus reports whether t matches every filter in params except
// status, so callers can derive both the status-filtered match set and
// open-task-count from the same candidate pool.
func matchesNonStatus(t *types.Task, params Params) bool {
	if params.TaskID != nil && t.ID != *params.TaskID {
		return false
	}
	if params.ParentID != nil {
		if t.ParentID == nil || *t.ParentID != *params.ParentID {
			return false
		}
	}
	if params.Category != "" && t.Category != params.Category {
		return false
	}
	if params.Type != "" && t.Type != params.Type {
		return false
	}
	if params.TitlePattern != "" && t.Title != params.TitlePattern {
		return false
	}
	return true
}

func hasBlockedBy(t *types.Task) bool {
	for _, r := range t.Relations {
		if r.AsType == types.RelationBlockedBy {
			return true
		}
	}
	return false
}

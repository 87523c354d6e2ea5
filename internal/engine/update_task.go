package engine

import (
	"fmt"

	"context"

	"github.com/untoldecay/mcp-tasks/internal/apperr"
	"github.com/untoldecay/mcp-tasks/internal/execstate"
	"github.com/untoldecay/mcp-tasks/internal/store"
	"github.com/untoldecay/mcp-tasks/internal/types"
	"github.com/untoldecay/mcp-tasks/internal/validate"
)

// UpdateTaskInput carries the update-task tool's parameters. Pointer/slice
// fields are nil when the caller did not supply that key at all (distinct
// from an explicit empty value, which clears the field). The two Append
// slices are the exception: an empty slice appends nothing.
type UpdateTaskInput struct {
	TaskID int

	Title       *string
	Description *string
	Design      *string
	Category    *string
	Type        *types.TaskType
	Status      *types.Status

	Meta      map[string]string // nil = untouched; non-nil empty map clears
	MetaClear bool              // true when caller explicitly sent nil for meta

	Relations      []types.Relation
	RelationsClear bool

	AppendSharedContext []string
	AppendSessionEvents []types.SessionEvent

	CodeReviewed *string
	PRNum        *int
}

// UpdateTask replaces whole fields and appends to the two append-only
// collections.
func (e *Engine) UpdateTask(ctx context.Context, in UpdateTaskInput) (*Reply, error) {
	if err := e.syncAndPrepare(ctx); err != nil {
		return nil, err
	}

	var updated *types.Task
	_, err := e.Store.Mutate(func(cur store.Snapshot) (store.Snapshot, error) {
		existing, ok := cur.Tasks[in.TaskID]
		if !ok {
			return cur, apperr.New(apperr.NotFound, fmt.Sprintf("task %d not found", in.TaskID), "task-id", in.TaskID)
		}
		next := existing.Clone()

		if in.Title != nil {
			next.Title = *in.Title
		}
		if in.Description != nil {
			next.Description = *in.Description
		}
		if in.Design != nil {
			next.Design = *in.Design
		}
		if in.Category != nil {
			next.Category = *in.Category
		}
		if in.Type != nil {
			next.Type = *in.Type
		}
		if in.Status != nil {
			next.Status = *in.Status
		}
		if in.MetaClear {
			next.Meta = map[string]string{}
		} else if in.Meta != nil {
			next.Meta = in.Meta
		}

		relationsChanged := false
		if in.RelationsClear {
			next.Relations = nil
			relationsChanged = true
		} else if in.Relations != nil {
			next.Relations = in.Relations
			relationsChanged = true
		}

		if in.CodeReviewed != nil {
			next.CodeReviewed = *in.CodeReviewed
		}
		if in.PRNum != nil {
			next.PRNum = in.PRNum
		}

		if len(in.AppendSharedContext) > 0 {
			prefix := ""
			if st, ok, _ := execstate.Read(e.Cfg.BaseDir); ok {
				prefix = fmt.Sprintf("Task %d: ", st.TaskID)
			}
			for _, entry := range in.AppendSharedContext {
				next.SharedContext = append(next.SharedContext, prefix+entry)
			}
		}

		if len(in.AppendSessionEvents) > 0 {
			for _, ev := range in.AppendSessionEvents {
				if !ev.EventType.IsValid() {
					return cur, apperr.New(apperr.InvalidInput, fmt.Sprintf("invalid session event type %q", ev.EventType), "task-id", in.TaskID)
				}
				if ev.Timestamp == "" {
					ev.Timestamp = nowISO8601()
				}
				next.SessionEvents = append(next.SessionEvents, ev)
			}
		}

		withNext := cloneTaskMap(cur.Tasks)
		withNext[in.TaskID] = next
		if err := validate.Standard()(next, withNext); err != nil {
			return cur, err
		}
		if relationsChanged {
			if err := validate.DetectCycle(withNext, []int{in.TaskID}); err != nil {
				return cur, err
			}
		}

		cur.Tasks[in.TaskID] = next
		updated = next
		return cur, nil
	})
	if err != nil {
		return nil, err
	}

	gitStatus := e.commit(ctx, updateMessage(updated.ID, updated.Title))
	return &Reply{
		Message:   updateMessage(updated.ID, updated.Title),
		Data:      updated,
		GitStatus: gitStatus,
	}, nil
}

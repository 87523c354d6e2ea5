package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/untoldecay/mcp-tasks/internal/apperr"
	"github.com/untoldecay/mcp-tasks/internal/store"
	"github.com/untoldecay/mcp-tasks/internal/types"
)

// DeleteTaskInput names the task to delete.
type DeleteTaskInput struct {
	TaskID int
}

// DeleteTask sets status=deleted and archives the record, rejecting
// already-deleted tasks and tasks with non-closed children.
func (e *Engine) DeleteTask(ctx context.Context, in DeleteTaskInput) (*Reply, error) {
	if err := e.syncAndPrepare(ctx); err != nil {
		return nil, err
	}

	var deleted *types.Task
	_, err := e.Store.Mutate(func(cur store.Snapshot) (store.Snapshot, error) {
		t, ok := cur.Tasks[in.TaskID]
		if !ok {
			return cur, apperr.New(apperr.NotFound, fmt.Sprintf("task %d not found", in.TaskID), "task-id", in.TaskID)
		}
		if t.Status == types.StatusDeleted {
			return cur, apperr.New(apperr.State, fmt.Sprintf("task %d is already deleted", in.TaskID), "task-id", in.TaskID)
		}

		var nonClosed []int
		for id, c := range cur.Tasks {
			if c.ParentID != nil && *c.ParentID == in.TaskID && c.Status != types.StatusClosed && c.Status != types.StatusDeleted {
				nonClosed = append(nonClosed, id)
			}
		}
		if len(nonClosed) > 0 {
			sort.Ints(nonClosed)
			return cur, apperr.New(apperr.State, "cannot delete task with children", "task-id", in.TaskID, "non-closed-children", nonClosed)
		}

		t.Status = types.StatusDeleted
		cur.Archived[in.TaskID] = true
		deleted = t
		return cur, nil
	})
	if err != nil {
		return nil, err
	}

	gitStatus := e.commit(ctx, deleteMessage(deleted.ID, deleted.Title))
	return &Reply{
		Message: deleteMessage(deleted.ID, deleted.Title),
		Data: map[string]any{
			"deleted":  deleted,
			"metadata": map[string]any{"count": 1, "status": "deleted"},
		},
		GitStatus: gitStatus,
	}, nil
}

package engine

import (
	"context"
	"fmt"

	"github.com/untoldecay/mcp-tasks/internal/apperr"
	"github.com/untoldecay/mcp-tasks/internal/store"
	"github.com/untoldecay/mcp-tasks/internal/types"
)

// ReopenTaskInput names the task to reopen.
type ReopenTaskInput struct {
	TaskID int
}

// ReopenTask reverses completion: rejects already-open tasks, clears
// archival by moving the record back to tasks.ednl, and sets status open.
func (e *Engine) ReopenTask(ctx context.Context, in ReopenTaskInput) (*Reply, error) {
	if err := e.syncAndPrepare(ctx); err != nil {
		return nil, err
	}

	var reopened *types.Task
	_, err := e.Store.Mutate(func(cur store.Snapshot) (store.Snapshot, error) {
		t, ok := cur.Tasks[in.TaskID]
		if !ok {
			return cur, apperr.New(apperr.NotFound, fmt.Sprintf("task %d not found", in.TaskID), "task-id", in.TaskID)
		}
		if t.Status == types.StatusOpen {
			return cur, apperr.New(apperr.State, fmt.Sprintf("task %d is already open", in.TaskID), "task-id", in.TaskID)
		}
		t.Status = types.StatusOpen
		delete(cur.Archived, in.TaskID)
		reopened = t
		return cur, nil
	})
	if err != nil {
		return nil, err
	}

	gitStatus := e.commit(ctx, reopenMessage(reopened.ID, reopened.Title))
	return &Reply{Message: reopenMessage(reopened.ID, reopened.Title), Data: reopened, GitStatus: gitStatus}, nil
}

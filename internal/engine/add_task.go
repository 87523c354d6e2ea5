package engine

import (
	"context"

	"github.com/untoldecay/mcp-tasks/internal/apperr"
	"github.com/untoldecay/mcp-tasks/internal/store"
	"github.com/untoldecay/mcp-tasks/internal/types"
	"github.com/untoldecay/mcp-tasks/internal/validate"
)

// AddTaskInput is the add-task tool's parameter shape.
type AddTaskInput struct {
	Category    string
	Title       string
	Type        types.TaskType // defaults to task
	Description string
	Design      string
	ParentID    *int
	Relations   []types.Relation
}

// AddTask assigns the next id, defaults type/status/meta, validates parent
// and relations, and appends the new task.
func (e *Engine) AddTask(ctx context.Context, in AddTaskInput) (*Reply, error) {
	if in.Title == "" {
		return nil, apperr.New(apperr.InvalidInput, "title is required")
	}
	taskType := in.Type
	if taskType == "" {
		taskType = types.TypeTask
	}

	if err := e.syncAndPrepare(ctx); err != nil {
		return nil, err
	}

	var created *types.Task
	snap, err := e.Store.Mutate(func(cur store.Snapshot) (store.Snapshot, error) {
		id := cur.NextID
		t := &types.Task{
			ID:          id,
			ParentID:    in.ParentID,
			Title:       in.Title,
			Description: in.Description,
			Design:      in.Design,
			Category:    in.Category,
			Type:        taskType,
			Status:      types.StatusOpen,
			Meta:        map[string]string{},
			Relations:   in.Relations,
		}
		if err := validate.Standard()(t, cur.Tasks); err != nil {
			return cur, err
		}
		startIDs := relationTargets(t.Relations)
		startIDs = append(startIDs, id)
		withNew := cloneTaskMap(cur.Tasks)
		withNew[id] = t
		if err := validate.DetectCycle(withNew, startIDs); err != nil {
			return cur, err
		}
		cur.Tasks[id] = t
		cur.NextID = id + 1
		created = t
		return cur, nil
	})
	if err != nil {
		return nil, err
	}
	_ = snap

	gitStatus := e.commit(ctx, addMessage(created.ID, created.Title))
	return &Reply{
		Message:   addMessage(created.ID, created.Title),
		Data:      created,
		GitStatus: gitStatus,
	}, nil
}

func relationTargets(rels []types.Relation) []int {
	ids := make([]int, 0, len(rels))
	for _, r := range rels {
		if r.AsType == types.RelationBlockedBy {
			ids = append(ids, r.RelatesTo)
		}
	}
	return ids
}

func cloneTaskMap(m map[int]*types.Task) map[int]*types.Task {
	out := make(map[int]*types.Task, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

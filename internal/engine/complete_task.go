package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/untoldecay/mcp-tasks/internal/apperr"
	"github.com/untoldecay/mcp-tasks/internal/execstate"
	"github.com/untoldecay/mcp-tasks/internal/store"
	"github.com/untoldecay/mcp-tasks/internal/types"
)

// CompleteTaskInput resolves the target by id, title, or both.
type CompleteTaskInput struct {
	TaskID            *int
	Title             *string
	CompletionComment string
}

// CompleteTask closes a task: a regular task closes and archives; a
// story-child closes but stays in tasks.ednl; a story archives atomically
// with all its children once every child is closed or deleted.
func (e *Engine) CompleteTask(ctx context.Context, in CompleteTaskInput) (*Reply, error) {
	if err := e.syncAndPrepare(ctx); err != nil {
		return nil, err
	}

	var msg string
	var data any
	var archivedWorktreePath string

	snap, err := e.Store.Mutate(func(cur store.Snapshot) (store.Snapshot, error) {
		target, err := resolveTask(cur.Tasks, in.TaskID, in.Title)
		if err != nil {
			return cur, err
		}
		if target.Status == types.StatusDeleted {
			return cur, apperr.New(apperr.State, fmt.Sprintf("task %d is already deleted", target.ID), "task-id", target.ID)
		}

		if target.Type == types.TypeStory {
			childIDs := childrenOf(cur.Tasks, target.ID)
			var blocking []int
			for _, cid := range childIDs {
				c := cur.Tasks[cid]
				if c.Status != types.StatusClosed && c.Status != types.StatusDeleted {
					blocking = append(blocking, cid)
				}
			}
			if len(blocking) > 0 {
				sort.Ints(blocking)
				return cur, apperr.New(apperr.State, fmt.Sprintf("story %d has non-closed children", target.ID), "task-id", target.ID, "blocking-children", blocking)
			}
			target.Status = types.StatusClosed
			cur.Archived[target.ID] = true
			for _, cid := range childIDs {
				cur.Archived[cid] = true
			}
			msg = completeStoryMessage(target.ID, target.Title, len(childIDs))
			data = target
			return cur, nil
		}

		if target.ParentID != nil {
			// story-child: closes but stays in tasks.ednl until the
			// parent story is archived.
			target.Status = types.StatusClosed
			if in.CompletionComment != "" {
				target.Description = appendComment(target.Description, in.CompletionComment)
			}
			msg = completeTaskMessage(target.ID, target.Title)
			data = target
			return cur, nil
		}

		target.Status = types.StatusClosed
		if in.CompletionComment != "" {
			target.Description = appendComment(target.Description, in.CompletionComment)
		}
		cur.Archived[target.ID] = true
		msg = completeTaskMessage(target.ID, target.Title)
		data = target
		return cur, nil
	})
	if err != nil {
		return nil, err
	}
	_ = snap

	gitStatus := e.commit(ctx, msg)

	completedID := data.(*types.Task).ID
	completedParentless := data.(*types.Task).ParentID == nil || data.(*types.Task).Type == types.TypeStory
	if e.WTMgr != nil && completedParentless {
		if path, ok, ferr := e.findWorktreeForTask(ctx, completedID); ferr == nil && ok {
			archivedWorktreePath = path
		}
	}
	if archivedWorktreePath != "" {
		if err := e.WTMgr.CleanupIfClean(ctx, archivedWorktreePath); err != nil {
			return &Reply{Message: msg, Data: data, GitStatus: gitStatus, Warning: err.Error()}, nil
		}
	}
	if err := execstate.Clear(e.Cfg.BaseDir); err != nil {
		return &Reply{Message: msg, Data: data, GitStatus: gitStatus, Warning: err.Error()}, nil
	}

	return &Reply{Message: msg, Data: data, GitStatus: gitStatus}, nil
}

func childrenOf(all map[int]*types.Task, parentID int) []int {
	var ids []int
	for id, t := range all {
		if t.ParentID != nil && *t.ParentID == parentID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

func appendComment(description, comment string) string {
	if description == "" {
		return comment
	}
	return description + "\n\n" + comment
}

func (e *Engine) findWorktreeForTask(ctx context.Context, taskID int) (string, bool, error) {
	t, ok := e.Store.ByID(taskID)
	if !ok {
		return "", false, nil
	}
	rootID := taskID
	if t.ParentID != nil {
		rootID = *t.ParentID
	}
	root, ok := e.Store.ByID(rootID)
	if !ok {
		return "", false, nil
	}
	branch := branchNameFor(rootID, root.Title)
	return e.WTMgr.FindWorktreeForBranch(ctx, branch)
}

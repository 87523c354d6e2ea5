package engine

import (
	"context"
	"fmt"

	"github.com/untoldecay/mcp-tasks/internal/apperr"
	"github.com/untoldecay/mcp-tasks/internal/execstate"
	"github.com/untoldecay/mcp-tasks/internal/gitutil"
	"github.com/untoldecay/mcp-tasks/internal/worktree"
)

// WorkOnInput names the task the caller is about to start working on.
type WorkOnInput struct {
	TaskID int
}

func branchNameFor(rootID int, title string) string {
	return worktree.BranchName(rootID, title)
}

// WorkOn validates the task, derives the branch/worktree (when enabled),
// and writes the execution-state file.
func (e *Engine) WorkOn(ctx context.Context, in WorkOnInput) (*Reply, error) {
	task, ok := e.Store.ByID(in.TaskID)
	if !ok {
		return nil, apperr.New(apperr.NotFound, fmt.Sprintf("task %d not found", in.TaskID), "task-id", in.TaskID)
	}

	rootID := in.TaskID
	var storyID *int
	if task.ParentID != nil {
		rootID = *task.ParentID
		parent, ok := e.Store.ByID(rootID)
		if !ok {
			return nil, apperr.New(apperr.Integrity, fmt.Sprintf("parent task %d does not exist", rootID), "task-id", in.TaskID, "parent-id", rootID)
		}
		storyID = &parent.ID
	}

	root, ok := e.Store.ByID(rootID)
	if !ok {
		return nil, apperr.New(apperr.Integrity, fmt.Sprintf("root task %d does not exist", rootID), "task-id", in.TaskID)
	}
	branch := branchNameFor(rootID, root.Title)

	workingDir := e.Cfg.BaseDir
	message := fmt.Sprintf("Now working on task #%d", in.TaskID)

	if e.Cfg.BranchManagement && e.Repo != nil {
		current, err := e.Repo.CurrentBranch(ctx)
		if err != nil {
			return nil, apperr.New(apperr.GitOther, fmt.Sprintf("determining current branch: %v", err))
		}
		if current != branch {
			dirty, err := e.Repo.HasUncommitted(ctx)
			if err != nil {
				return nil, apperr.New(apperr.GitOther, fmt.Sprintf("checking working tree: %v", err))
			}
			if dirty {
				return nil, apperr.New(apperr.State, "working tree is not clean; commit or stash before switching tasks",
					"current-branch", current, "target-branch", branch)
			}

			base := e.Cfg.BaseBranch
			if base == "" {
				base, err = e.Repo.DefaultBranch(ctx)
				if err != nil {
					return nil, apperr.New(apperr.Integrity, fmt.Sprintf("resolving base branch: %v", err))
				}
			}
			if exists, _ := e.Repo.BranchExists(ctx, base); !exists {
				return nil, apperr.New(apperr.Integrity, fmt.Sprintf("base branch %q does not exist", base), "base-branch", base)
			}

			if err := e.Repo.Checkout(ctx, base); err != nil {
				return nil, apperr.New(apperr.GitOther, fmt.Sprintf("checking out base branch %q: %v", base, err))
			}
			if err := e.Repo.Pull(ctx); err != nil {
				if gerr, ok := err.(*gitutil.Error); ok && gerr.Kind == gitutil.ErrNoRemote {
					// no remote configured: nothing to pull, not an error.
				} else if e.Logger != nil {
					e.Logger.Printf("work-on: pull on base branch %q did not complete cleanly, continuing: %v", base, err)
				}
			}

			if exists, _ := e.Repo.BranchExists(ctx, branch); exists {
				if err := e.Repo.Checkout(ctx, branch); err != nil {
					return nil, apperr.New(apperr.GitOther, fmt.Sprintf("checking out branch %q: %v", branch, err))
				}
			} else {
				if err := e.Repo.CreateAndCheckout(ctx, branch); err != nil {
					return nil, apperr.New(apperr.GitOther, fmt.Sprintf("creating branch %q: %v", branch, err))
				}
			}
		}

		if e.WTMgr != nil {
			path, found, err := e.WTMgr.FindWorktreeForBranch(ctx, branch)
			if err != nil {
				return nil, apperr.New(apperr.GitOther, fmt.Sprintf("listing worktrees: %v", err))
			}
			if found {
				inside, _ := e.Repo.InWorktree(ctx)
				if inside {
					workingDir = path
				} else {
					workingDir = path
					message = fmt.Sprintf("Task #%d's worktree already exists at %s; switch your shell there to continue", in.TaskID, path)
				}
			} else {
				slug := worktree.Slug(root.Title)
				wtPath := e.WTMgr.WorktreePathFor(slug)
				base := e.Cfg.BaseBranch
				if base == "" {
					base, _ = e.Repo.DefaultBranch(ctx)
				}
				if err := e.WTMgr.EnsureWorktree(ctx, wtPath, branch, base); err != nil {
					return nil, apperr.New(apperr.GitOther, fmt.Sprintf("creating worktree: %v", err))
				}
				workingDir = wtPath
			}
		}
	}

	st := &execstate.State{TaskID: in.TaskID, StoryID: storyID, StartedAt: nowISO8601()}
	if err := execstate.Write(workingDir, st); err != nil {
		return nil, apperr.New(apperr.Filesystem, fmt.Sprintf("writing execution state: %v", err))
	}

	return &Reply{
		Message: message,
		Data: map[string]any{
			"task-id":     in.TaskID,
			"branch":      branch,
			"working-dir": workingDir,
		},
	}, nil
}

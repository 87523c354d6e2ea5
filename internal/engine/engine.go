// Package engine implements the mutation engine: the
// sync-then-validate-then-write-then-commit sequence shared by every
// mutating tool, with a commit-per-mutation git workflow.
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/untoldecay/mcp-tasks/internal/apperr"
	"github.com/untoldecay/mcp-tasks/internal/config"
	"github.com/untoldecay/mcp-tasks/internal/gitutil"
	"github.com/untoldecay/mcp-tasks/internal/store"
	"github.com/untoldecay/mcp-tasks/internal/types"
	"github.com/untoldecay/mcp-tasks/internal/worktree"
)

// GitStatus is the third content item of a mutating reply, present only
// when git integration is enabled.
type GitStatus struct {
	Status string // "ok" | "error"
	Commit string
	Error  string
}

// Reply is the shaped result of a mutating tool call, handed to
// internal/dispatch for rendering into content items.
type Reply struct {
	Message   string
	Data      any
	GitStatus *GitStatus
	Warning   string // e.g. worktree cleanup failure; still a success reply
}

// Engine wires together the store, git adapter, and worktree manager for
// one project.
type Engine struct {
	Cfg    *config.Config
	Store  *store.Store
	Repo   *gitutil.Repo // nil when cfg.UseGit is false
	WTMgr  *worktree.Manager
	Logger *log.Logger
}

// New builds an Engine from a loaded config and store.
func New(cfg *config.Config, s *store.Store, logger *log.Logger) *Engine {
	e := &Engine{Cfg: cfg, Store: s, Logger: logger}
	if cfg.UseGit {
		e.Repo = gitutil.New(cfg.BaseDir)
	}
	if cfg.WorktreeManagement {
		e.WTMgr = worktree.NewManager(cfg.BaseDir, config.DataDirName)
	}
	return e
}

// syncAndPrepare runs `git pull` before any write.
// A conflict or network failure aborts the mutation entirely; a no-remote
// condition is not fatal.
func (e *Engine) syncAndPrepare(ctx context.Context) error {
	if e.Repo == nil {
		return nil
	}
	if err := e.Repo.Pull(ctx); err != nil {
		if gerr, ok := err.(*gitutil.Error); ok {
			switch gerr.Kind {
			case gitutil.ErrNoRemote:
				return nil
			case gitutil.ErrConflict:
				return apperr.New(apperr.GitConflict, "pull resulted in a conflict; aborting mutation", "detail", gerr.Output)
			case gitutil.ErrNetwork:
				return apperr.New(apperr.GitNetwork, "pull failed due to a network error; aborting mutation", "detail", gerr.Output)
			default:
				return apperr.New(apperr.GitConflict, "pull did not complete cleanly; aborting mutation", "detail", gerr.Output)
			}
		}
		return apperr.New(apperr.GitConflict, fmt.Sprintf("pull failed: %v", err))
	}
	// A successful pull may have brought in remote edits to the record
	// files; reload the in-memory index before validating against it.
	if err := e.Store.Load(); err != nil {
		return apperr.New(apperr.Filesystem, fmt.Sprintf("reloading store after pull: %v", err))
	}
	return nil
}

// commit stages the two record files and commits with message, classifying
// any failure as a non-fatal git-other warning: the data-file mutation has
// already succeeded and is never rolled back.
func (e *Engine) commit(ctx context.Context, message string) *GitStatus {
	if e.Repo == nil {
		return nil
	}
	if err := e.Repo.Add(ctx, e.Store.TasksPath(), e.Store.CompletePath()); err != nil {
		return &GitStatus{Status: "error", Error: err.Error()}
	}
	if err := e.Repo.Commit(ctx, message); err != nil {
		return &GitStatus{Status: "error", Error: err.Error()}
	}
	return &GitStatus{Status: "ok"}
}

// resolveTask finds a task by exact id, by exact unique title, or both
// (must agree), matching complete-task's identifier resolution rule.
func resolveTask(all map[int]*types.Task, id *int, title *string) (*types.Task, error) {
	if id != nil {
		t, ok := all[*id]
		if !ok {
			return nil, apperr.New(apperr.NotFound, fmt.Sprintf("task %d not found", *id), "task-id", *id)
		}
		if title != nil && t.Title != *title {
			return nil, apperr.New(apperr.InvalidInput, fmt.Sprintf("task %d title does not match %q", *id, *title), "task-id", *id, "title", *title)
		}
		return t, nil
	}
	if title == nil {
		return nil, apperr.New(apperr.InvalidInput, "task-id or title is required")
	}
	var matches []*types.Task
	for _, t := range all {
		if t.Title == *title {
			matches = append(matches, t)
		}
	}
	if len(matches) == 0 {
		return nil, apperr.New(apperr.NotFound, fmt.Sprintf("no task titled %q", *title), "title", *title)
	}
	if len(matches) > 1 {
		return nil, apperr.New(apperr.Ambiguous, fmt.Sprintf("%d tasks titled %q", len(matches), *title), "title", *title, "count", len(matches))
	}
	return matches[0], nil
}

func nowISO8601() string {
	return time.Now().UTC().Format(time.RFC3339)
}

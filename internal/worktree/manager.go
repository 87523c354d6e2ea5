// Package worktree implements the branch and worktree lifecycle for
// work-on/complete-task: prune stale entries, probe for an existing valid
// worktree, create with sparse checkout scoped to a caller-supplied
// project-relative directory (".mcp-tasks/" here), and tear down on
// completion.
package worktree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/untoldecay/mcp-tasks/internal/gitutil"
)

// Manager drives branch derivation and per-story worktree lifecycle for one
// main repository checkout.
type Manager struct {
	repo       *gitutil.Repo
	repoPath   string
	sparsePath string // project-relative directory scoped into sparse checkouts, e.g. ".mcp-tasks/"
}

// NewManager returns a Manager rooted at repoPath, scoping worktree sparse
// checkouts to sparsePath (the project's data directory).
func NewManager(repoPath, sparsePath string) *Manager {
	return &Manager{
		repo:       gitutil.New(repoPath),
		repoPath:   repoPath,
		sparsePath: sparsePath,
	}
}

// WorktreePathFor derives the sibling worktree directory for a branch slug,
// "<project>-<slug>" next to the main repo.
func (m *Manager) WorktreePathFor(slug string) string {
	parent := filepath.Dir(m.repoPath)
	base := filepath.Base(m.repoPath)
	return filepath.Join(parent, base+"-"+slug)
}

// FindWorktreeForBranch reports the existing worktree path bound to branch,
// if any.
func (m *Manager) FindWorktreeForBranch(ctx context.Context, branch string) (string, bool, error) {
	entries, err := m.repo.WorktreeList(ctx)
	if err != nil {
		return "", false, err
	}
	for _, e := range entries {
		if e.Branch == branch {
			return e.Path, true, nil
		}
	}
	return "", false, nil
}

// EnsureWorktree creates (or reuses) a worktree at path bound to branch,
// sparse-checked-out to m.sparsePath, branching from baseBranch when the
// branch does not already exist.
func (m *Manager) EnsureWorktree(ctx context.Context, path, branch, baseBranch string) error {
	_ = m.repo.WorktreePrune(ctx)

	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			if valid, _ := m.isRegisteredWorktree(ctx, path); valid {
				return nil
			}
			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("worktree: removing stale path %s: %w", path, err)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("worktree: creating parent dir: %w", err)
	}

	exists, err := m.repo.BranchExists(ctx, branch)
	if err != nil {
		return err
	}
	if exists {
		if err := m.repo.WorktreeAdd(ctx, path, branch, false); err != nil {
			return fmt.Errorf("worktree: adding worktree for existing branch %s: %w", branch, err)
		}
	} else {
		if err := m.repo.WorktreeAddFromBase(ctx, path, branch, baseBranch); err != nil {
			return fmt.Errorf("worktree: creating worktree branch %s from %s: %w", branch, baseBranch, err)
		}
	}

	wtRepo := gitutil.New(path)
	if err := wtRepo.SparseCheckoutInit(ctx); err != nil {
		_ = m.Teardown(ctx, path)
		return fmt.Errorf("worktree: sparse-checkout init: %w", err)
	}
	if err := wtRepo.SparseCheckoutSet(ctx, "/"+m.sparsePath); err != nil {
		_ = m.Teardown(ctx, path)
		return fmt.Errorf("worktree: sparse-checkout set: %w", err)
	}
	if err := wtRepo.Checkout(ctx, branch); err != nil {
		_ = m.Teardown(ctx, path)
		return fmt.Errorf("worktree: checkout %s in worktree: %w", branch, err)
	}
	return nil
}

func (m *Manager) isRegisteredWorktree(ctx context.Context, path string) (bool, error) {
	entries, err := m.repo.WorktreeList(ctx)
	if err != nil {
		return false, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		entryAbs, err := filepath.Abs(e.Path)
		if err != nil {
			continue
		}
		if entryAbs == abs {
			return true, nil
		}
	}
	return false, nil
}

// Teardown removes a worktree, best-effort falling back to a manual
// directory removal plus prune if `git worktree remove` itself fails.
func (m *Manager) Teardown(ctx context.Context, path string) error {
	if err := m.repo.WorktreeRemove(ctx, path); err != nil {
		if rmErr := os.RemoveAll(path); rmErr != nil {
			return fmt.Errorf("worktree: removing %s: %w (git error: %v)", path, rmErr, err)
		}
		_ = m.repo.WorktreePrune(ctx)
	}
	return nil
}

// CleanupIfClean tears down the worktree at path only if it has no
// uncommitted changes (cleanup failure is a warning, never a hard error).
func (m *Manager) CleanupIfClean(ctx context.Context, path string) error {
	wtRepo := gitutil.New(path)
	dirty, err := wtRepo.HasUncommitted(ctx)
	if err != nil {
		return fmt.Errorf("worktree: checking cleanliness of %s: %w", path, err)
	}
	if dirty {
		return fmt.Errorf("worktree: %s has uncommitted changes, skipping cleanup", path)
	}
	return m.Teardown(ctx, path)
}

package worktree

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func initMainRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init", "-q", "-b", "main")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	if err := os.MkdirAll(filepath.Join(dir, ".mcp-tasks"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".mcp-tasks", "tasks.ednl"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	run("add", ".")
	run("commit", "-q", "-m", "initial")
	return dir
}

func TestEnsureWorktreeCreateAndReuse(t *testing.T) {
	repoPath := initMainRepo(t)
	mgr := NewManager(repoPath, ".mcp-tasks")
	ctx := context.Background()

	branch := BranchName(10, "Add login form")
	wtPath := mgr.WorktreePathFor(Slug("Add login form"))

	if err := mgr.EnsureWorktree(ctx, wtPath, branch, "main"); err != nil {
		t.Fatalf("EnsureWorktree: %v", err)
	}
	if _, err := os.Stat(wtPath); err != nil {
		t.Fatalf("expected worktree dir to exist: %v", err)
	}

	found, ok, err := mgr.FindWorktreeForBranch(ctx, branch)
	if err != nil {
		t.Fatalf("FindWorktreeForBranch: %v", err)
	}
	if !ok {
		t.Fatalf("expected to find worktree for branch %s", branch)
	}
	if filepath.Clean(found) != filepath.Clean(wtPath) {
		t.Fatalf("found path %q, want %q", found, wtPath)
	}

	// Reuse: calling EnsureWorktree again should not error or recreate.
	if err := mgr.EnsureWorktree(ctx, wtPath, branch, "main"); err != nil {
		t.Fatalf("EnsureWorktree (reuse): %v", err)
	}
}

func TestCleanupIfCleanRemovesWorktree(t *testing.T) {
	repoPath := initMainRepo(t)
	mgr := NewManager(repoPath, ".mcp-tasks")
	ctx := context.Background()

	branch := BranchName(1, "quick fix")
	wtPath := mgr.WorktreePathFor(Slug("quick fix"))
	if err := mgr.EnsureWorktree(ctx, wtPath, branch, "main"); err != nil {
		t.Fatalf("EnsureWorktree: %v", err)
	}

	if err := mgr.CleanupIfClean(ctx, wtPath); err != nil {
		t.Fatalf("CleanupIfClean: %v", err)
	}
	if _, err := os.Stat(wtPath); !os.IsNotExist(err) {
		t.Fatalf("expected worktree dir removed, stat err = %v", err)
	}
}

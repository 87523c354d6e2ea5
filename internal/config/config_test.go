package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWithoutProject(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.UseGit {
		t.Fatalf("expected use-git default true")
	}
	if cfg.BranchManagement || cfg.WorktreeManagement {
		t.Fatalf("expected branch/worktree management default false")
	}
	if cfg.BaseDir != dir {
		t.Fatalf("expected base dir %s, got %s", dir, cfg.BaseDir)
	}
}

func TestLoadWalksUpwardToProjectRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, DataDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(sub)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseDir != root {
		t.Fatalf("expected base dir %s, got %s", root, cfg.BaseDir)
	}
}

func TestLoadParsesConfigFile(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, DataDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	contents := `{:use-git? false :worktree-management? true :base-branch "develop"}`
	if err := os.WriteFile(filepath.Join(root, ConfigFileName), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UseGit {
		t.Fatalf("expected use-git false")
	}
	if !cfg.WorktreeManagement {
		t.Fatalf("expected worktree-management true")
	}
	if !cfg.BranchManagement {
		t.Fatalf("expected branch-management implied true by worktree-management")
	}
	if cfg.BaseBranch != "develop" {
		t.Fatalf("expected base-branch develop, got %q", cfg.BaseBranch)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{BaseDir: root, UseGit: true, BranchManagement: true, BaseBranch: "main"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, DataDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	reloaded, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reloaded.UseGit || !reloaded.BranchManagement || reloaded.BaseBranch != "main" {
		t.Fatalf("round trip mismatch: %+v", reloaded)
	}
}

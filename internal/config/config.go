// Package config resolves the project data directory and layered
// configuration: an upward directory walk to find a project config and
// viper env-prefix/defaults layering, reading the project's own
// .mcp-tasks.edn file (parsed by internal/ednl rather than viper's built-in
// decoders, since .edn is not one of viper's supported config types).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/untoldecay/mcp-tasks/internal/ednl"
)

// DataDirName is the project-relative directory holding tasks.ednl and
// complete.ednl.
const DataDirName = ".mcp-tasks"

// ConfigFileName is the project config file's name, which sits next to (not
// inside) the data directory.
const ConfigFileName = ".mcp-tasks.edn"

// Config is the fully resolved, defaulted configuration for one project.
type Config struct {
	BaseDir            string // directory containing .mcp-tasks/ and .mcp-tasks.edn
	DataDir            string // BaseDir/.mcp-tasks
	UseGit             bool
	BranchManagement   bool
	WorktreeManagement bool
	BaseBranch         string
}

// Load resolves a Config starting from startDir, walking upward to find an
// existing .mcp-tasks/ directory. If none is found, startDir itself is
// treated as the base directory for a fresh project.
func Load(startDir string) (*Config, error) {
	if abs, err := filepath.Abs(startDir); err == nil {
		startDir = abs
	}
	baseDir, found := findProjectRoot(startDir)
	if !found {
		baseDir = startDir
	}

	v := viper.New()
	v.SetEnvPrefix("MCPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("use-git", true)
	v.SetDefault("branch-management", false)
	v.SetDefault("worktree-management", false)
	v.SetDefault("base-branch", "")

	configPath := filepath.Join(baseDir, ConfigFileName)
	if contents, err := os.ReadFile(configPath); err == nil {
		fields, err := ednl.ParseConfig(strings.TrimSpace(string(contents)))
		if err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", configPath, err)
		}
		// File values replace the built-in defaults, so MCPT_* env vars
		// still take precedence over them.
		if fields.UseGit != nil {
			v.SetDefault("use-git", *fields.UseGit)
		}
		if fields.BranchManagement != nil {
			v.SetDefault("branch-management", *fields.BranchManagement)
		}
		if fields.WorktreeManagement != nil {
			v.SetDefault("worktree-management", *fields.WorktreeManagement)
		}
		if fields.BaseBranch != nil {
			v.SetDefault("base-branch", *fields.BaseBranch)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
	}

	worktreeMgmt := v.GetBool("worktree-management")
	branchMgmt := v.GetBool("branch-management") || worktreeMgmt

	return &Config{
		BaseDir:            baseDir,
		DataDir:            filepath.Join(baseDir, DataDirName),
		UseGit:             v.GetBool("use-git"),
		BranchManagement:   branchMgmt,
		WorktreeManagement: worktreeMgmt,
		BaseBranch:         v.GetString("base-branch"),
	}, nil
}

// findProjectRoot walks upward from dir looking for an existing
// .mcp-tasks/ directory, returning the directory that contains it.
func findProjectRoot(dir string) (string, bool) {
	for {
		candidate := filepath.Join(dir, DataDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// TasksFile returns the path to the active-tasks record file.
func (c *Config) TasksFile() string {
	return filepath.Join(c.DataDir, "tasks.ednl")
}

// CompleteFile returns the path to the archived/completed-tasks record file.
func (c *Config) CompleteFile() string {
	return filepath.Join(c.DataDir, "complete.ednl")
}

// ExecStateFile returns the path to the current-execution-state file,
// resolved relative to whichever working copy dir the caller is in (the
// worktree base when worktree management placed one, else BaseDir).
func ExecStateFile(workingCopyDir string) string {
	return filepath.Join(workingCopyDir, ".mcp-tasks-current.edn")
}

// Save overwrites .mcp-tasks.edn with c's settings: the three boolean keys
// are always written, base-branch only when it is non-empty. Any other
// content of the existing file is not kept.
func (c *Config) Save() error {
	useGit := c.UseGit
	branchMgmt := c.BranchManagement
	worktreeMgmt := c.WorktreeManagement
	baseBranch := c.BaseBranch
	fields := &ednl.ConfigFields{
		UseGit:             &useGit,
		BranchManagement:   &branchMgmt,
		WorktreeManagement: &worktreeMgmt,
	}
	if baseBranch != "" {
		fields.BaseBranch = &baseBranch
	}
	contents := ednl.EncodeConfig(fields)
	return os.WriteFile(filepath.Join(c.BaseDir, ConfigFileName), []byte(contents), 0o644)
}

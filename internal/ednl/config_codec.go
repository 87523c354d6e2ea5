package ednl

import "time"

const (
	lockTimeout       = 5 * time.Second
	lockRetryInterval = 25 * time.Millisecond
)

// ConfigFields is the decoded shape of .mcp-tasks.edn: a single top-level
// map with four optional keys. Absent keys are left at the zero value; the
// caller (internal/config) applies defaults and the env-var overlay.
type ConfigFields struct {
	UseGit               *bool
	BranchManagement     *bool
	WorktreeManagement   *bool
	BaseBranch           *string
}

// ParseConfig parses the single top-level map in a .mcp-tasks.edn file's
// contents (the whole file is one record, unlike tasks.ednl's one-per-line
// convention, since a config is a single value rather than a collection).
func ParseConfig(contents string) (*ConfigFields, error) {
	v, err := ParseLine(contents)
	if err != nil {
		return nil, err
	}
	m, err := AsMap(v)
	if err != nil {
		return nil, err
	}
	cf := &ConfigFields{}
	if raw, ok := m.Get("use-git?"); ok {
		if b, ok := raw.(bool); ok {
			cf.UseGit = &b
		}
	}
	if raw, ok := m.Get("branch-management?"); ok {
		if b, ok := raw.(bool); ok {
			cf.BranchManagement = &b
		}
	}
	if raw, ok := m.Get("worktree-management?"); ok {
		if b, ok := raw.(bool); ok {
			cf.WorktreeManagement = &b
		}
	}
	if raw, ok := m.Get("base-branch"); ok {
		if s, err := AsString(raw); err == nil {
			cf.BaseBranch = &s
		}
	}
	return cf, nil
}

// EncodeConfig renders fields back into .mcp-tasks.edn file contents,
// omitting unset keys so a partially-specified config round-trips without
// spuriously pinning defaults.
func EncodeConfig(cf *ConfigFields) string {
	m := &Map{}
	if cf.UseGit != nil {
		m.Set("use-git?", *cf.UseGit)
	}
	if cf.BranchManagement != nil {
		m.Set("branch-management?", *cf.BranchManagement)
	}
	if cf.WorktreeManagement != nil {
		m.Set("worktree-management?", *cf.WorktreeManagement)
	}
	if cf.BaseBranch != nil {
		m.Set("base-branch", *cf.BaseBranch)
	}
	return EncodeLine(m) + "\n"
}

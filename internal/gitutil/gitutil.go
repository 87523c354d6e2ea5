// Package gitutil is a typed adapter over the git CLI: every operation
// shells out via os/exec and never panics — failures come back as a
// classified error so callers in internal/engine and internal/worktree can
// decide whether a git failure is fatal, retryable, or ignorable.
package gitutil

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ErrorKind classifies why a git operation failed, mirroring the
// git-conflict / git-network / git-other split the engine's error model
// needs to decide retry vs. abort behavior.
type ErrorKind string

const (
	ErrNone      ErrorKind = ""
	ErrConflict  ErrorKind = "git-conflict"
	ErrNetwork   ErrorKind = "git-network"
	ErrNoRemote  ErrorKind = "git-no-remote"
	ErrOther     ErrorKind = "git-other"
)

// Error wraps a failed git invocation with its classification.
type Error struct {
	Kind    ErrorKind
	Command []string
	Output  string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("git %s: %v\n%s", strings.Join(e.Command, " "), e.Err, e.Output)
}

func (e *Error) Unwrap() error { return e.Err }

// Repo wraps the path of a git working tree (main repo checkout or a
// worktree) and runs git commands rooted there.
type Repo struct {
	Dir string
}

// New returns a Repo rooted at dir.
func New(dir string) *Repo {
	return &Repo{Dir: dir}
}

func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	output := out.String()
	if err != nil {
		return output, &Error{
			Kind:    classify(output, err),
			Command: args,
			Output:  output,
			Err:     err,
		}
	}
	return output, nil
}

func classify(output string, err error) ErrorKind {
	lower := strings.ToLower(output)
	switch {
	case strings.Contains(lower, "conflict"), strings.Contains(lower, "would be overwritten"):
		return ErrConflict
	case strings.Contains(lower, "could not resolve host"),
		strings.Contains(lower, "connection timed out"),
		strings.Contains(lower, "network is unreachable"),
		strings.Contains(lower, "unable to access"):
		return ErrNetwork
	case strings.Contains(lower, "no configured push destination"),
		strings.Contains(lower, "no tracking information"),
		strings.Contains(lower, "does not appear to be a git repository"):
		return ErrNoRemote
	default:
		return ErrOther
	}
}

// IsRepo reports whether dir is inside a git working tree.
func (r *Repo) IsRepo(ctx context.Context) bool {
	_, err := r.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil
}

// HasUncommitted reports whether the working tree has any staged or
// unstaged changes (porcelain status is non-empty).
func (r *Repo) HasUncommitted(ctx context.Context) (bool, error) {
	out, err := r.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// StatusPorcelain returns the raw `git status --porcelain` lines.
func (r *Repo) StatusPorcelain(ctx context.Context) ([]string, error) {
	out, err := r.run(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	return splitNonEmpty(out), nil
}

// Add stages the given paths (relative to r.Dir).
func (r *Repo) Add(ctx context.Context, paths ...string) error {
	args := append([]string{"add"}, paths...)
	_, err := r.run(ctx, args...)
	return err
}

// Commit creates a commit with message. Returns nil if there was nothing
// to commit (treated as a no-op success, matching the engine's "commit
// only if something changed" contract).
func (r *Repo) Commit(ctx context.Context, message string) error {
	_, err := r.run(ctx, "commit", "-m", message)
	if err != nil {
		var gerr *Error
		if ok := asError(err, &gerr); ok && strings.Contains(strings.ToLower(gerr.Output), "nothing to commit") {
			return nil
		}
		return err
	}
	return nil
}

// Pull runs `git pull --ff-only` and classifies the failure mode so callers
// can distinguish a real conflict from a transient network failure.
func (r *Repo) Pull(ctx context.Context) error {
	_, err := r.run(ctx, "pull", "--ff-only")
	return err
}

// CurrentBranch returns the checked-out branch name.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// DefaultBranch returns the repository's default branch, preferring "main"
// and falling back to "master" if main does not exist.
func (r *Repo) DefaultBranch(ctx context.Context) (string, error) {
	if ok, _ := r.BranchExists(ctx, "main"); ok {
		return "main", nil
	}
	if ok, _ := r.BranchExists(ctx, "master"); ok {
		return "master", nil
	}
	return "", &Error{Kind: ErrOther, Command: []string{"<default-branch>"}, Err: fmt.Errorf("neither main nor master exists")}
}

// BranchExists reports whether branch exists locally or on origin.
func (r *Repo) BranchExists(ctx context.Context, branch string) (bool, error) {
	if _, err := r.run(ctx, "show-ref", "--verify", "--quiet", "refs/heads/"+branch); err == nil {
		return true, nil
	}
	if _, err := r.run(ctx, "show-ref", "--verify", "--quiet", "refs/remotes/origin/"+branch); err == nil {
		return true, nil
	}
	return false, nil
}

// Checkout switches to an existing branch.
func (r *Repo) Checkout(ctx context.Context, branch string) error {
	_, err := r.run(ctx, "checkout", branch)
	return err
}

// CreateAndCheckout creates branch from the current HEAD and switches to it.
func (r *Repo) CreateAndCheckout(ctx context.Context, branch string) error {
	_, err := r.run(ctx, "checkout", "-b", branch)
	return err
}

// WorktreeEntry is one line of `git worktree list --porcelain`.
type WorktreeEntry struct {
	Path   string
	Branch string
	Bare   bool
}

// WorktreeList returns the repository's registered worktrees.
func (r *Repo) WorktreeList(ctx context.Context) ([]WorktreeEntry, error) {
	out, err := r.run(ctx, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	var entries []WorktreeEntry
	var cur WorktreeEntry
	flush := func() {
		if cur.Path != "" {
			entries = append(entries, cur)
		}
		cur = WorktreeEntry{}
	}
	for _, line := range splitNonEmpty(out) {
		switch {
		case strings.HasPrefix(line, "worktree "):
			flush()
			cur.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "branch "):
			cur.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		case line == "bare":
			cur.Bare = true
		}
	}
	flush()
	return entries, nil
}

// WorktreeAdd creates a worktree at path for branch, creating the branch
// from HEAD if createBranch is true.
func (r *Repo) WorktreeAdd(ctx context.Context, path, branch string, createBranch bool) error {
	var err error
	if createBranch {
		_, err = r.run(ctx, "worktree", "add", "-f", "--no-checkout", "-b", branch, path)
	} else {
		_, err = r.run(ctx, "worktree", "add", "-f", "--no-checkout", path, branch)
	}
	return err
}

// WorktreeAddFromBase creates a worktree at path on a new branch cut from
// baseBranch, rather than from the current HEAD.
func (r *Repo) WorktreeAddFromBase(ctx context.Context, path, branch, baseBranch string) error {
	_, err := r.run(ctx, "worktree", "add", "-f", "--no-checkout", "-b", branch, path, baseBranch)
	return err
}

// WorktreeRemove removes a worktree, forcing removal even with local changes.
func (r *Repo) WorktreeRemove(ctx context.Context, path string) error {
	_, err := r.run(ctx, "worktree", "remove", path, "--force")
	return err
}

// WorktreePrune removes stale worktree administrative entries.
func (r *Repo) WorktreePrune(ctx context.Context) error {
	_, err := r.run(ctx, "worktree", "prune")
	return err
}

// SparseCheckoutInit initializes non-cone sparse checkout in r.Dir.
func (r *Repo) SparseCheckoutInit(ctx context.Context) error {
	_, err := r.run(ctx, "sparse-checkout", "init", "--no-cone")
	return err
}

// SparseCheckoutSet scopes the sparse checkout to the given patterns.
func (r *Repo) SparseCheckoutSet(ctx context.Context, patterns ...string) error {
	args := append([]string{"sparse-checkout", "set"}, patterns...)
	_, err := r.run(ctx, args...)
	return err
}

// MainRepoDir reports the common git directory's parent, i.e. the main
// checkout a worktree was created from, by resolving `git rev-parse
// --git-common-dir`.
func (r *Repo) MainRepoDir(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--git-common-dir")
	if err != nil {
		return "", err
	}
	gitDir := strings.TrimSpace(out)
	gitDir = strings.TrimSuffix(gitDir, "/.git")
	gitDir = strings.TrimSuffix(gitDir, ".git")
	if gitDir == "" {
		gitDir = "."
	}
	return gitDir, nil
}

// InWorktree reports whether r.Dir is a linked worktree rather than the
// main checkout.
func (r *Repo) InWorktree(ctx context.Context) (bool, error) {
	out, err := r.run(ctx, "rev-parse", "--git-common-dir")
	if err != nil {
		return false, err
	}
	commonDir := strings.TrimSpace(out)
	out2, err := r.run(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return false, err
	}
	gitDir := strings.TrimSpace(out2)
	return commonDir != gitDir, nil
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func asError(err error, target **Error) bool {
	if ge, ok := err.(*Error); ok {
		*target = ge
		return true
	}
	return false
}

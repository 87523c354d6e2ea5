package worktree

import (
	"regexp"
	"strconv"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases title, replaces runs of whitespace and non-alphanumeric
// characters with a single hyphen, and trims leading/trailing hyphens, for
// use as a branch-name fragment.
func Slug(title string) string {
	lower := strings.ToLower(title)
	slug := nonAlnum.ReplaceAllString(lower, "-")
	return strings.Trim(slug, "-")
}

// BranchName derives the target branch for a task: "<root-id>-<slug>" where
// rootID is the story id for a child task, or the task's own id otherwise.
func BranchName(rootID int, title string) string {
	return strconv.Itoa(rootID) + "-" + Slug(title)
}

// Package dispatch shapes tool invocations into the content-list reply
// format and enforces client/server protocol-version compatibility.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/untoldecay/mcp-tasks/internal/apperr"
)

// ServerVersion is the dispatcher's own protocol version, compared against
// a caller-supplied ClientVersion on every invocation.
var ServerVersion = "0.1.0"

// ContentItem is one entry of a reply's content list.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Reply is the tool-invocation wire shape: a content list plus an
// isError flag.
type Reply struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError"`
}

// Handler executes one named tool against a decoded params map and returns
// a message, optional data, optional git-status, and optional warning.
type Handler func(ctx context.Context, params map[string]any) (message string, data any, gitStatus any, warning string, err error)

// Dispatcher routes a tool name to its handler.
type Dispatcher struct {
	handlers map[string]Handler
}

// New builds an empty Dispatcher; register tools with Register.
func New() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register binds name to handler. Tool names are stable across the
// surface: add-task, update-task, complete-task, delete-task,
// reopen-task, select-tasks, work-on.
func (d *Dispatcher) Register(name string, h Handler) {
	d.handlers[name] = h
}

// Invoke runs the named tool, checking clientVersion for compatibility
// first, and shapes the result (or error) into a Reply.
func (d *Dispatcher) Invoke(ctx context.Context, name string, params map[string]any, clientVersion string) Reply {
	if err := checkVersionCompatibility(clientVersion); err != nil {
		return errorReply(apperr.New(apperr.InvalidInput, err.Error()))
	}

	h, ok := d.handlers[name]
	if !ok {
		return errorReply(apperr.New(apperr.InvalidInput, fmt.Sprintf("unknown tool %q", name)))
	}

	message, data, gitStatus, warning, err := h(ctx, params)
	if err != nil {
		return errorReply(err)
	}

	items := []ContentItem{{Type: "text", Text: message}}
	if data != nil {
		items = append(items, jsonItem(data))
	}
	if gitStatus != nil {
		items = append(items, jsonItem(gitStatus))
	}
	if warning != "" {
		items = append(items, ContentItem{Type: "text", Text: "warning: " + warning})
	}
	return Reply{Content: items, IsError: false}
}

func errorReply(err error) Reply {
	ae, ok := apperr.As(err)
	if !ok {
		return Reply{
			Content: []ContentItem{
				{Type: "text", Text: err.Error()},
				jsonItem(map[string]any{"error": err.Error(), "metadata": map[string]any{}}),
			},
			IsError: true,
		}
	}
	return Reply{
		Content: []ContentItem{
			{Type: "text", Text: ae.Message},
			jsonItem(map[string]any{"error": ae.Message, "metadata": ae.Metadata}),
		},
		IsError: true,
	}
}

func jsonItem(v any) ContentItem {
	b, err := json.Marshal(v)
	if err != nil {
		return ContentItem{Type: "text", Text: fmt.Sprintf("%v", v)}
	}
	return ContentItem{Type: "text", Text: string(b)}
}

// checkVersionCompatibility rejects a caller whose major protocol version
// differs from ours; an empty or non-semver clientVersion is allowed
// through (older callers, dev builds).
func checkVersionCompatibility(clientVersion string) error {
	if clientVersion == "" {
		return nil
	}
	serverVer := normalizeSemver(ServerVersion)
	clientVer := normalizeSemver(clientVersion)

	if !semver.IsValid(serverVer) || !semver.IsValid(clientVer) {
		return nil
	}

	if semver.Major(serverVer) != semver.Major(clientVer) {
		return fmt.Errorf("incompatible major protocol versions: client %s, server %s", clientVersion, ServerVersion)
	}
	if semver.Compare(serverVer, clientVer) < 0 {
		return fmt.Errorf("server %s is older than client %s; upgrade the server", ServerVersion, clientVersion)
	}
	return nil
}

func normalizeSemver(v string) string {
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}

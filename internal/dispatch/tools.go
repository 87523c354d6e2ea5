package dispatch

import (
	"context"
	"fmt"

	"github.com/untoldecay/mcp-tasks/internal/apperr"
	"github.com/untoldecay/mcp-tasks/internal/engine"
	"github.com/untoldecay/mcp-tasks/internal/query"
	"github.com/untoldecay/mcp-tasks/internal/store"
	"github.com/untoldecay/mcp-tasks/internal/types"
)

// RegisterEngineTools binds the seven stable tool names to e and s,
// converting the untyped params map each call arrives with into the
// engine's typed inputs.
func RegisterEngineTools(d *Dispatcher, e *engine.Engine, s *store.Store) {
	d.Register("add-task", func(ctx context.Context, params map[string]any) (string, any, any, string, error) {
		in := engine.AddTaskInput{
			Category:    str(params, "category"),
			Title:       str(params, "title"),
			Description: str(params, "description"),
			Design:      str(params, "design"),
			Type:        types.TaskType(str(params, "type")),
			ParentID:    intPtr(params, "parent-id"),
			Relations:   relations(params, "relations"),
		}
		reply, err := e.AddTask(ctx, in)
		return unpack(reply, err)
	})

	d.Register("update-task", func(ctx context.Context, params map[string]any) (string, any, any, string, error) {
		taskID, ok := intVal(params, "task-id")
		if !ok {
			return "", nil, nil, "", apperr.New(apperr.InvalidInput, "task-id is required")
		}
		in := engine.UpdateTaskInput{
			TaskID:              taskID,
			Title:               strPtr(params, "title"),
			Description:         strPtr(params, "description"),
			Design:              strPtr(params, "design"),
			Category:            strPtr(params, "category"),
			CodeReviewed:        strPtr(params, "code-reviewed"),
			PRNum:               intPtr(params, "pr-num"),
			AppendSharedContext: strSlice(params, "append-shared-context"),
			AppendSessionEvents: sessionEvents(params, "append-session-events"),
		}
		if v, ok := params["type"]; ok {
			t := types.TaskType(fmt.Sprintf("%v", v))
			in.Type = &t
		}
		if v, ok := params["status"]; ok {
			st := types.Status(fmt.Sprintf("%v", v))
			in.Status = &st
		}
		if v, present := params["meta"]; present {
			if v == nil {
				in.MetaClear = true
			} else if m, ok := v.(map[string]any); ok {
				mm := make(map[string]string, len(m))
				for k, vv := range m {
					mm[k] = fmt.Sprintf("%v", vv)
				}
				in.Meta = mm
			}
		}
		if v, present := params["relations"]; present {
			if v == nil {
				in.RelationsClear = true
			} else {
				in.Relations = relations(params, "relations")
			}
		}
		reply, err := e.UpdateTask(ctx, in)
		return unpack(reply, err)
	})

	d.Register("complete-task", func(ctx context.Context, params map[string]any) (string, any, any, string, error) {
		in := engine.CompleteTaskInput{
			TaskID:            intPtr(params, "task-id"),
			Title:             strPtr(params, "title"),
			CompletionComment: str(params, "completion-comment"),
		}
		reply, err := e.CompleteTask(ctx, in)
		return unpack(reply, err)
	})

	d.Register("reopen-task", func(ctx context.Context, params map[string]any) (string, any, any, string, error) {
		taskID, ok := intVal(params, "task-id")
		if !ok {
			return "", nil, nil, "", apperr.New(apperr.InvalidInput, "task-id is required")
		}
		reply, err := e.ReopenTask(ctx, engine.ReopenTaskInput{TaskID: taskID})
		return unpack(reply, err)
	})

	d.Register("delete-task", func(ctx context.Context, params map[string]any) (string, any, any, string, error) {
		taskID, ok := intVal(params, "task-id")
		if !ok {
			return "", nil, nil, "", apperr.New(apperr.InvalidInput, "task-id is required")
		}
		reply, err := e.DeleteTask(ctx, engine.DeleteTaskInput{TaskID: taskID})
		return unpack(reply, err)
	})

	d.Register("work-on", func(ctx context.Context, params map[string]any) (string, any, any, string, error) {
		taskID, ok := intVal(params, "task-id")
		if !ok {
			return "", nil, nil, "", apperr.New(apperr.InvalidInput, "task-id is required")
		}
		reply, err := e.WorkOn(ctx, engine.WorkOnInput{TaskID: taskID})
		return unpack(reply, err)
	})

	d.Register("select-tasks", func(ctx context.Context, params map[string]any) (string, any, any, string, error) {
		all := make(map[int]*types.Task)
		for _, t := range s.All() {
			all[t.ID] = t
		}
		qp := query.Params{
			TaskID:       intPtr(params, "task-id"),
			ParentID:     intPtr(params, "parent-id"),
			Category:     str(params, "category"),
			Type:         types.TaskType(str(params, "type")),
			Status:       types.Status(str(params, "status")),
			TitlePattern: str(params, "title-pattern"),
			Unique:       boolVal(params, "unique"),
		}
		if v, ok := intVal(params, "limit"); ok {
			qp.Limit = v
		}
		res, err := query.Select(all, qp)
		if err != nil {
			return "", nil, nil, "", err
		}
		return fmt.Sprintf("%d task(s) matched", res.Metadata.TotalMatches), res, nil, "", nil
	})
}

func unpack(reply *engine.Reply, err error) (string, any, any, string, error) {
	if err != nil {
		return "", nil, nil, "", err
	}
	// A nil *GitStatus must become an untyped nil so Invoke omits the item.
	var gitStatus any
	if reply.GitStatus != nil {
		gitStatus = reply.GitStatus
	}
	return reply.Message, reply.Data, gitStatus, reply.Warning, nil
}

func str(params map[string]any, key string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func strPtr(params map[string]any, key string) *string {
	v, ok := params[key]
	if !ok || v == nil {
		return nil
	}
	s := fmt.Sprintf("%v", v)
	return &s
}

func strSlice(params map[string]any, key string) []string {
	v, ok := params[key]
	if !ok || v == nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, fmt.Sprintf("%v", item))
	}
	return out
}

func intVal(params map[string]any, key string) (int, bool) {
	v, ok := params[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

func intPtr(params map[string]any, key string) *int {
	n, ok := intVal(params, key)
	if !ok {
		return nil
	}
	return &n
}

func boolVal(params map[string]any, key string) bool {
	v, ok := params[key]
	if !ok || v == nil {
		return false
	}
	b, _ := v.(bool)
	return b
}

func sessionEvents(params map[string]any, key string) []types.SessionEvent {
	v, ok := params[key]
	if !ok || v == nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]types.SessionEvent, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		ev := types.SessionEvent{
			Timestamp: str(m, "timestamp"),
			EventType: types.SessionEventType(str(m, "event-type")),
		}
		if extra, ok := m["extra"].(map[string]any); ok {
			ev.Extra = make(map[string]string, len(extra))
			for k, vv := range extra {
				ev.Extra[k] = fmt.Sprintf("%v", vv)
			}
		}
		out = append(out, ev)
	}
	return out
}

func relations(params map[string]any, key string) []types.Relation {
	v, ok := params[key]
	if !ok || v == nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]types.Relation, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rel := types.Relation{AsType: types.RelationType(str(m, "as-type"))}
		if id, ok := intVal(m, "id"); ok {
			rel.ID = id
		}
		if rt, ok := intVal(m, "relates-to"); ok {
			rel.RelatesTo = rt
		}
		out = append(out, rel)
	}
	return out
}

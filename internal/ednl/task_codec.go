package ednl

import (
	"fmt"

	"github.com/untoldecay/mcp-tasks/internal/types"
)

// recognized top-level task-record keys, kept in the order a fresh record
// writes them. Unknown string-valued fields read from disk go into
// Task.Unknown and are re-emitted after these, in no defined order.
var taskFieldOrder = []string{
	"id", "parent-id", "title", "description", "design", "category", "type",
	"status", "meta", "relations", "shared-context", "session-events",
	"code-reviewed", "pr-num",
}

// ToRecord converts a Task into its *Map record form.
func ToRecord(t *types.Task) *Map {
	m := &Map{}
	m.Set("id", int64(t.ID))
	if t.ParentID != nil {
		m.Set("parent-id", int64(*t.ParentID))
	}
	m.Set("title", t.Title)
	if t.Description != "" {
		m.Set("description", t.Description)
	}
	if t.Design != "" {
		m.Set("design", t.Design)
	}
	if t.Category != "" {
		m.Set("category", t.Category)
	}
	m.Set("type", Keyword(t.Type))
	m.Set("status", Keyword(t.Status))
	if len(t.Meta) > 0 {
		meta := &Map{}
		for k, v := range t.Meta {
			meta.Set(k, v)
		}
		m.Set("meta", meta)
	}
	if len(t.Relations) > 0 {
		rels := make([]Value, len(t.Relations))
		for i, r := range t.Relations {
			rm := &Map{}
			rm.Set("id", int64(r.ID))
			rm.Set("relates-to", int64(r.RelatesTo))
			rm.Set("as-type", Keyword(r.AsType))
			rels[i] = rm
		}
		m.Set("relations", rels)
	}
	if len(t.SharedContext) > 0 {
		sc := make([]Value, len(t.SharedContext))
		for i, s := range t.SharedContext {
			sc[i] = s
		}
		m.Set("shared-context", sc)
	}
	if len(t.SessionEvents) > 0 {
		events := make([]Value, len(t.SessionEvents))
		for i, e := range t.SessionEvents {
			em := &Map{}
			em.Set("timestamp", e.Timestamp)
			em.Set("event-type", Keyword(e.EventType))
			for k, v := range e.Extra {
				em.Set(k, v)
			}
			events[i] = em
		}
		m.Set("session-events", events)
	}
	if t.CodeReviewed != "" {
		m.Set("code-reviewed", t.CodeReviewed)
	}
	if t.PRNum != nil {
		m.Set("pr-num", int64(*t.PRNum))
	}
	for k, v := range t.Unknown {
		m.Set(k, v)
	}
	return m
}

// FromRecord converts a parsed record back into a Task. Fields outside
// taskFieldOrder whose value is a string are kept in Unknown; unknown
// fields holding any other value (numbers, keywords, vectors, maps) are
// dropped and do not survive a re-write of the file.
func FromRecord(m *Map) (*types.Task, error) {
	t := &types.Task{}

	idVal, ok := m.Get("id")
	if !ok {
		return nil, fmt.Errorf("record missing :id")
	}
	id, err := AsInt(idVal)
	if err != nil {
		return nil, fmt.Errorf(":id: %w", err)
	}
	t.ID = int(id)

	if pidVal, ok := m.Get("parent-id"); ok && pidVal != nil {
		pid, err := AsInt(pidVal)
		if err != nil {
			return nil, fmt.Errorf(":parent-id: %w", err)
		}
		pidInt := int(pid)
		t.ParentID = &pidInt
	}

	titleVal, ok := m.Get("title")
	if !ok {
		return nil, fmt.Errorf("record missing :title")
	}
	title, err := AsString(titleVal)
	if err != nil {
		return nil, fmt.Errorf(":title: %w", err)
	}
	t.Title = title

	if v, ok := m.Get("description"); ok {
		s, err := AsString(v)
		if err != nil {
			return nil, fmt.Errorf(":description: %w", err)
		}
		t.Description = s
	}
	if v, ok := m.Get("design"); ok {
		s, err := AsString(v)
		if err != nil {
			return nil, fmt.Errorf(":design: %w", err)
		}
		t.Design = s
	}
	if v, ok := m.Get("category"); ok {
		s, err := AsString(v)
		if err != nil {
			return nil, fmt.Errorf(":category: %w", err)
		}
		t.Category = s
	}

	typeVal, ok := m.Get("type")
	if !ok {
		return nil, fmt.Errorf("record missing :type")
	}
	typeKw, err := AsKeyword(typeVal)
	if err != nil {
		return nil, fmt.Errorf(":type: %w", err)
	}
	t.Type = types.TaskType(typeKw)

	statusVal, ok := m.Get("status")
	if !ok {
		return nil, fmt.Errorf("record missing :status")
	}
	statusKw, err := AsKeyword(statusVal)
	if err != nil {
		return nil, fmt.Errorf(":status: %w", err)
	}
	t.Status = types.Status(statusKw)

	if v, ok := m.Get("meta"); ok {
		metaMap, err := AsMap(v)
		if err != nil {
			return nil, fmt.Errorf(":meta: %w", err)
		}
		t.Meta = make(map[string]string, len(metaMap.Pairs))
		for _, p := range metaMap.Pairs {
			s, err := AsString(p.Value)
			if err != nil {
				return nil, fmt.Errorf(":meta %s: %w", p.Key, err)
			}
			t.Meta[p.Key] = s
		}
	}

	if v, ok := m.Get("relations"); ok {
		vec, err := AsVector(v)
		if err != nil {
			return nil, fmt.Errorf(":relations: %w", err)
		}
		t.Relations = make([]types.Relation, len(vec))
		for i, item := range vec {
			rm, err := AsMap(item)
			if err != nil {
				return nil, fmt.Errorf(":relations[%d]: %w", i, err)
			}
			rel, err := relationFromRecord(rm)
			if err != nil {
				return nil, fmt.Errorf(":relations[%d]: %w", i, err)
			}
			t.Relations[i] = rel
		}
	}

	if v, ok := m.Get("shared-context"); ok {
		vec, err := AsVector(v)
		if err != nil {
			return nil, fmt.Errorf(":shared-context: %w", err)
		}
		t.SharedContext = make([]string, len(vec))
		for i, item := range vec {
			s, err := AsString(item)
			if err != nil {
				return nil, fmt.Errorf(":shared-context[%d]: %w", i, err)
			}
			t.SharedContext[i] = s
		}
	}

	if v, ok := m.Get("session-events"); ok {
		vec, err := AsVector(v)
		if err != nil {
			return nil, fmt.Errorf(":session-events: %w", err)
		}
		t.SessionEvents = make([]types.SessionEvent, len(vec))
		for i, item := range vec {
			em, err := AsMap(item)
			if err != nil {
				return nil, fmt.Errorf(":session-events[%d]: %w", i, err)
			}
			ev, err := sessionEventFromRecord(em)
			if err != nil {
				return nil, fmt.Errorf(":session-events[%d]: %w", i, err)
			}
			t.SessionEvents[i] = ev
		}
	}

	if v, ok := m.Get("code-reviewed"); ok {
		s, err := AsString(v)
		if err != nil {
			return nil, fmt.Errorf(":code-reviewed: %w", err)
		}
		t.CodeReviewed = s
	}
	if v, ok := m.Get("pr-num"); ok && v != nil {
		n, err := AsInt(v)
		if err != nil {
			return nil, fmt.Errorf(":pr-num: %w", err)
		}
		nInt := int(n)
		t.PRNum = &nInt
	}

	for _, p := range m.Pairs {
		if isKnownTaskField(p.Key) {
			continue
		}
		if t.Unknown == nil {
			t.Unknown = make(map[string]string)
		}
		if s, err := AsString(p.Value); err == nil {
			t.Unknown[p.Key] = s
		}
	}

	return t, nil
}

func isKnownTaskField(key string) bool {
	for _, k := range taskFieldOrder {
		if k == key {
			return true
		}
	}
	return false
}

func relationFromRecord(m *Map) (types.Relation, error) {
	var rel types.Relation
	idVal, ok := m.Get("id")
	if !ok {
		return rel, fmt.Errorf("relation missing :id")
	}
	id, err := AsInt(idVal)
	if err != nil {
		return rel, fmt.Errorf(":id: %w", err)
	}
	rel.ID = int(id)

	rtVal, ok := m.Get("relates-to")
	if !ok {
		return rel, fmt.Errorf("relation missing :relates-to")
	}
	rt, err := AsInt(rtVal)
	if err != nil {
		return rel, fmt.Errorf(":relates-to: %w", err)
	}
	rel.RelatesTo = int(rt)

	atVal, ok := m.Get("as-type")
	if !ok {
		return rel, fmt.Errorf("relation missing :as-type")
	}
	atKw, err := AsKeyword(atVal)
	if err != nil {
		return rel, fmt.Errorf(":as-type: %w", err)
	}
	rel.AsType = types.RelationType(atKw)
	return rel, nil
}

func sessionEventFromRecord(m *Map) (types.SessionEvent, error) {
	var ev types.SessionEvent
	tsVal, ok := m.Get("timestamp")
	if !ok {
		return ev, fmt.Errorf("session event missing :timestamp")
	}
	ts, err := AsString(tsVal)
	if err != nil {
		return ev, fmt.Errorf(":timestamp: %w", err)
	}
	ev.Timestamp = ts

	etVal, ok := m.Get("event-type")
	if !ok {
		return ev, fmt.Errorf("session event missing :event-type")
	}
	etKw, err := AsKeyword(etVal)
	if err != nil {
		return ev, fmt.Errorf(":event-type: %w", err)
	}
	ev.EventType = types.SessionEventType(etKw)

	for _, p := range m.Pairs {
		if p.Key == "timestamp" || p.Key == "event-type" {
			continue
		}
		s, err := AsString(p.Value)
		if err != nil {
			continue
		}
		if ev.Extra == nil {
			ev.Extra = make(map[string]string)
		}
		ev.Extra[p.Key] = s
	}
	return ev, nil
}

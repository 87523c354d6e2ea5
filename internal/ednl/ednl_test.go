package ednl

import (
	"path/filepath"
	"testing"

	"github.com/untoldecay/mcp-tasks/internal/types"
)

func TestParseLineRoundTrip(t *testing.T) {
	in := `{:id 1 :title "hello \"world\"" :tags [:a :b] :active true :missing nil}`
	v, err := ParseLine(in)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	m, ok := v.(*Map)
	if !ok {
		t.Fatalf("expected *Map, got %T", v)
	}
	id, err := AsInt(mustGet(t, m, "id"))
	if err != nil || id != 1 {
		t.Fatalf("id = %v, %v", id, err)
	}
	title, err := AsString(mustGet(t, m, "title"))
	if err != nil || title != `hello "world"` {
		t.Fatalf("title = %q, %v", title, err)
	}

	out := EncodeLine(m)
	v2, err := ParseLine(out)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	m2 := v2.(*Map)
	if id2, _ := AsInt(mustGet(t, m2, "id")); id2 != 1 {
		t.Fatalf("round trip id mismatch: %d", id2)
	}
}

func mustGet(t *testing.T, m *Map, key string) Value {
	t.Helper()
	v, ok := m.Get(key)
	if !ok {
		t.Fatalf("missing key %q", key)
	}
	return v
}

func TestTaskCodecRoundTrip(t *testing.T) {
	pid := 7
	pr := 42
	task := &types.Task{
		ID:          3,
		ParentID:    &pid,
		Title:       "implement thing",
		Description: "multi\nline",
		Type:        types.TypeBug,
		Status:      types.StatusOpen,
		Meta:        map[string]string{"owner": "ada"},
		Relations: []types.Relation{
			{ID: 1, RelatesTo: 2, AsType: types.RelationBlockedBy},
		},
		SharedContext: []string{"note one", "note two"},
		SessionEvents: []types.SessionEvent{
			{Timestamp: "2026-01-01T00:00:00Z", EventType: types.EventUserPrompt},
		},
		PRNum: &pr,
	}

	rec := ToRecord(task)
	line := EncodeLine(rec)

	v, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	m, ok := v.(*Map)
	if !ok {
		t.Fatalf("expected *Map, got %T", v)
	}
	got, err := FromRecord(m)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}

	if got.ID != task.ID || got.Title != task.Title || got.Status != task.Status {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.ParentID == nil || *got.ParentID != pid {
		t.Fatalf("parent id mismatch: %v", got.ParentID)
	}
	if len(got.Relations) != 1 || got.Relations[0].AsType != types.RelationBlockedBy {
		t.Fatalf("relations mismatch: %+v", got.Relations)
	}
	if len(got.SharedContext) != 2 {
		t.Fatalf("shared context mismatch: %+v", got.SharedContext)
	}
	if got.PRNum == nil || *got.PRNum != pr {
		t.Fatalf("pr num mismatch: %v", got.PRNum)
	}
}

func TestReadFileMissingIsEmpty(t *testing.T) {
	records, err := ReadFile(filepath.Join(t.TempDir(), "absent.ednl"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected 0 records, got %d", len(records))
	}
}

func TestWriteFileThenReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.ednl")

	m1 := &Map{}
	m1.Set("id", int64(1))
	m1.Set("title", "one")
	m2 := &Map{}
	m2.Set("id", int64(2))
	m2.Set("title", "two")

	if err := WriteFile(path, []*Map{m1, m2}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	records, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	id, _ := AsInt(mustGet(t, records[1], "id"))
	if id != 2 {
		t.Fatalf("expected second record id 2, got %d", id)
	}

	// Overwrite entirely, confirming atomic replace rather than append.
	if err := WriteFile(path, []*Map{m1}); err != nil {
		t.Fatalf("WriteFile overwrite: %v", err)
	}
	records, err = ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile after overwrite: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after overwrite, got %d", len(records))
	}
}

func TestParseConfigRoundTrip(t *testing.T) {
	src := `{:use-git? true :branch-management? false :base-branch "main"}`
	cf, err := ParseConfig(src)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cf.UseGit == nil || !*cf.UseGit {
		t.Fatalf("UseGit = %v", cf.UseGit)
	}
	if cf.BranchManagement == nil || *cf.BranchManagement {
		t.Fatalf("BranchManagement = %v", cf.BranchManagement)
	}
	if cf.BaseBranch == nil || *cf.BaseBranch != "main" {
		t.Fatalf("BaseBranch = %v", cf.BaseBranch)
	}
	if cf.WorktreeManagement != nil {
		t.Fatalf("expected WorktreeManagement unset, got %v", cf.WorktreeManagement)
	}

	out := EncodeConfig(cf)
	cf2, err := ParseConfig(out)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if cf2.BaseBranch == nil || *cf2.BaseBranch != "main" {
		t.Fatalf("round trip base-branch mismatch: %v", cf2.BaseBranch)
	}
}

package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/untoldecay/mcp-tasks/internal/config"
	"github.com/untoldecay/mcp-tasks/internal/execstate"
	"github.com/untoldecay/mcp-tasks/internal/store"
	"github.com/untoldecay/mcp-tasks/internal/types"
)

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, config.DataDirName), 0o755); err != nil {
		t.Fatalf("mkdir data dir: %v", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.UseGit = false
	s := store.New(cfg)
	if err := s.Load(); err != nil {
		t.Fatalf("store.Load: %v", err)
	}
	return New(cfg, s, nil), dir
}

func TestAddTaskAssignsSequentialIDs(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	r1, err := e.AddTask(ctx, AddTaskInput{Title: "first"})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	r2, err := e.AddTask(ctx, AddTaskInput{Title: "second"})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	t1 := r1.Data.(*types.Task)
	t2 := r2.Data.(*types.Task)
	if t1.ID != 1 || t2.ID != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", t1.ID, t2.ID)
	}
	if t1.Type != types.TypeTask || t1.Status != types.StatusOpen {
		t.Fatalf("defaults not applied: %+v", t1)
	}
}

func TestAddTaskRejectsEmptyTitle(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.AddTask(context.Background(), AddTaskInput{Title: ""})
	if err == nil {
		t.Fatal("expected error for empty title")
	}
}

func TestAddTaskRejectsParentThatIsNotStory(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	r, err := e.AddTask(ctx, AddTaskInput{Title: "plain task"})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	parentID := r.Data.(*types.Task).ID
	_, err = e.AddTask(ctx, AddTaskInput{Title: "child", ParentID: &parentID})
	if err == nil {
		t.Fatal("expected error: parent is not a story")
	}
}

func TestUpdateTaskRejectsCycle(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	r1, err := e.AddTask(ctx, AddTaskInput{Title: "a"})
	if err != nil {
		t.Fatalf("AddTask a: %v", err)
	}
	idA := r1.Data.(*types.Task).ID

	r2, err := e.AddTask(ctx, AddTaskInput{
		Title:     "b",
		Relations: []types.Relation{{ID: 1, RelatesTo: idA, AsType: types.RelationBlockedBy}},
	})
	if err != nil {
		t.Fatalf("AddTask b: %v", err)
	}
	idB := r2.Data.(*types.Task).ID

	_, err = e.UpdateTask(ctx, UpdateTaskInput{
		TaskID:    idA,
		Relations: []types.Relation{{ID: 1, RelatesTo: idB, AsType: types.RelationBlockedBy}},
	})
	if err == nil {
		t.Fatal("expected cycle error")
	}
}

func TestUpdateTaskClearsMetaOnExplicitEmpty(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	r, err := e.AddTask(ctx, AddTaskInput{Title: "task"})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	id := r.Data.(*types.Task).ID

	if _, err := e.UpdateTask(ctx, UpdateTaskInput{TaskID: id, MetaClear: true}); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	got, ok := e.Store.ByID(id)
	if !ok {
		t.Fatal("task not found")
	}
	if len(got.Meta) != 0 {
		t.Fatalf("meta = %v, want cleared", got.Meta)
	}
}

func TestUpdateTaskAppendsSharedContextAndSessionEvents(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	r, err := e.AddTask(ctx, AddTaskInput{Title: "task"})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	id := r.Data.(*types.Task).ID

	_, err = e.UpdateTask(ctx, UpdateTaskInput{
		TaskID:              id,
		AppendSharedContext: []string{"found the root cause"},
		AppendSessionEvents: []types.SessionEvent{{EventType: types.EventUserPrompt}},
	})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	got, _ := e.Store.ByID(id)
	if len(got.SharedContext) != 1 || len(got.SessionEvents) != 1 {
		t.Fatalf("shared-context/session-events not appended: %+v", got)
	}
	if got.SessionEvents[0].Timestamp == "" {
		t.Fatal("session event timestamp not defaulted")
	}
}

func TestUpdateTaskRejectsInvalidSessionEventType(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	r, err := e.AddTask(ctx, AddTaskInput{Title: "task"})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	id := r.Data.(*types.Task).ID

	_, err = e.UpdateTask(ctx, UpdateTaskInput{
		TaskID:              id,
		AppendSessionEvents: []types.SessionEvent{{EventType: "not-a-real-type"}},
	})
	if err == nil {
		t.Fatal("expected error for invalid session event type")
	}
}

func TestCompleteTaskArchivesRegularTask(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	r, err := e.AddTask(ctx, AddTaskInput{Title: "task"})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	id := r.Data.(*types.Task).ID

	if _, err := e.CompleteTask(ctx, CompleteTaskInput{TaskID: &id}); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if !e.Store.IsArchived(id) {
		t.Fatal("expected task to be archived")
	}
	got, _ := e.Store.ByID(id)
	if got.Status != types.StatusClosed {
		t.Fatalf("status = %s, want closed", got.Status)
	}
}

func TestCompleteTaskRejectsStoryWithOpenChildren(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	storyReply, err := e.AddTask(ctx, AddTaskInput{Title: "story", Type: types.TypeStory})
	if err != nil {
		t.Fatalf("AddTask story: %v", err)
	}
	storyID := storyReply.Data.(*types.Task).ID

	if _, err := e.AddTask(ctx, AddTaskInput{Title: "child", ParentID: &storyID}); err != nil {
		t.Fatalf("AddTask child: %v", err)
	}

	_, err = e.CompleteTask(ctx, CompleteTaskInput{TaskID: &storyID})
	if err == nil {
		t.Fatal("expected error: story has a non-closed child")
	}
}

func TestCompleteTaskArchivesStoryAndChildrenTogether(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	storyReply, err := e.AddTask(ctx, AddTaskInput{Title: "story", Type: types.TypeStory})
	if err != nil {
		t.Fatalf("AddTask story: %v", err)
	}
	storyID := storyReply.Data.(*types.Task).ID

	childReply, err := e.AddTask(ctx, AddTaskInput{Title: "child", ParentID: &storyID})
	if err != nil {
		t.Fatalf("AddTask child: %v", err)
	}
	childID := childReply.Data.(*types.Task).ID

	if _, err := e.CompleteTask(ctx, CompleteTaskInput{TaskID: &childID}); err != nil {
		t.Fatalf("CompleteTask child: %v", err)
	}
	if e.Store.IsArchived(childID) {
		t.Fatal("story-child should stay in tasks.ednl until the story archives")
	}

	if _, err := e.CompleteTask(ctx, CompleteTaskInput{TaskID: &storyID}); err != nil {
		t.Fatalf("CompleteTask story: %v", err)
	}
	if !e.Store.IsArchived(storyID) || !e.Store.IsArchived(childID) {
		t.Fatal("expected story and child both archived")
	}
}

func TestReopenTaskRejectsAlreadyOpen(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	r, err := e.AddTask(ctx, AddTaskInput{Title: "task"})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	id := r.Data.(*types.Task).ID

	_, err = e.ReopenTask(ctx, ReopenTaskInput{TaskID: id})
	if err == nil {
		t.Fatal("expected error: task is already open")
	}
}

func TestReopenTaskRestoresFromArchive(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	r, err := e.AddTask(ctx, AddTaskInput{Title: "task"})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	id := r.Data.(*types.Task).ID

	if _, err := e.CompleteTask(ctx, CompleteTaskInput{TaskID: &id}); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if _, err := e.ReopenTask(ctx, ReopenTaskInput{TaskID: id}); err != nil {
		t.Fatalf("ReopenTask: %v", err)
	}
	if e.Store.IsArchived(id) {
		t.Fatal("expected task to leave the archive on reopen")
	}
	got, _ := e.Store.ByID(id)
	if got.Status != types.StatusOpen {
		t.Fatalf("status = %s, want open", got.Status)
	}
}

func TestDeleteTaskRejectsNonClosedChildren(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	storyReply, err := e.AddTask(ctx, AddTaskInput{Title: "story", Type: types.TypeStory})
	if err != nil {
		t.Fatalf("AddTask story: %v", err)
	}
	storyID := storyReply.Data.(*types.Task).ID
	if _, err := e.AddTask(ctx, AddTaskInput{Title: "child", ParentID: &storyID}); err != nil {
		t.Fatalf("AddTask child: %v", err)
	}

	_, err = e.DeleteTask(ctx, DeleteTaskInput{TaskID: storyID})
	if err == nil {
		t.Fatal("expected error: story has a non-closed child")
	}
}

func TestDeleteTaskRejectsAlreadyDeleted(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	r, err := e.AddTask(ctx, AddTaskInput{Title: "task"})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	id := r.Data.(*types.Task).ID

	if _, err := e.DeleteTask(ctx, DeleteTaskInput{TaskID: id}); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	_, err = e.DeleteTask(ctx, DeleteTaskInput{TaskID: id})
	if err == nil {
		t.Fatal("expected error: task is already deleted")
	}
}

func TestWorkOnWritesExecutionStateWithoutGit(t *testing.T) {
	e, dir := newTestEngine(t)
	ctx := context.Background()
	r, err := e.AddTask(ctx, AddTaskInput{Title: "implement feature"})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	id := r.Data.(*types.Task).ID

	if _, err := e.WorkOn(ctx, WorkOnInput{TaskID: id}); err != nil {
		t.Fatalf("WorkOn: %v", err)
	}
	st, ok, err := execstate.Read(dir)
	if err != nil {
		t.Fatalf("reading execution state: %v", err)
	}
	if !ok {
		t.Fatal("expected an execution-state file to be written")
	}
	if st.TaskID != id {
		t.Fatalf("task-id = %d, want %d", st.TaskID, id)
	}
}

func TestWorkOnRejectsUnknownTask(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.WorkOn(context.Background(), WorkOnInput{TaskID: 999})
	if err == nil {
		t.Fatal("expected error for unknown task id")
	}
}

package execstate

import (
	"testing"
)

func TestWriteReadClearRoundTrip(t *testing.T) {
	dir := t.TempDir()

	storyID := 10
	st := &State{TaskID: 42, StoryID: &storyID, StartedAt: "2026-01-01T00:00:00Z"}
	if err := Write(dir, st); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, ok, err := Read(dir)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !ok {
		t.Fatalf("expected state to be present")
	}
	if got.TaskID != 42 || got.StoryID == nil || *got.StoryID != 10 {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if err := Clear(dir); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	_, ok, err = Read(dir)
	if err != nil {
		t.Fatalf("Read after clear: %v", err)
	}
	if ok {
		t.Fatalf("expected state cleared")
	}

	// Clearing an already-absent file is not an error.
	if err := Clear(dir); err != nil {
		t.Fatalf("Clear on absent file: %v", err)
	}
}

func TestWriteWithoutStoryID(t *testing.T) {
	dir := t.TempDir()
	if err := Write(dir, &State{TaskID: 1, StartedAt: "2026-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, ok, err := Read(dir)
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	if got.StoryID != nil {
		t.Fatalf("expected nil story id, got %v", *got.StoryID)
	}
}

package engine

import "testing"

func TestTruncateTitleBoundary(t *testing.T) {
	exact50 := "12345678901234567890123456789012345678901234567890" // 50 chars
	if got := truncateTitle(exact50); got != exact50 {
		t.Fatalf("expected 50-char title untruncated, got %q", got)
	}

	over51 := exact50 + "1" // 51 chars
	want := string([]rune(over51)[:47]) + "…"
	if got := truncateTitle(over51); got != want {
		t.Fatalf("truncateTitle(51 chars) = %q, want %q", got, want)
	}
}

func TestCommitMessageGrammar(t *testing.T) {
	if got := addMessage(1, "implement feature X"); got != "Add task #1: implement feature X" {
		t.Fatalf("addMessage = %q", got)
	}
	if got := completeStoryMessage(10, "big story", 2); got != "Complete story #10: big story (with 2 tasks)" {
		t.Fatalf("completeStoryMessage = %q", got)
	}
}

package engine

import "fmt"

// truncateTitle applies the commit message grammar's title rule: titles of
// 50 characters or fewer commit untruncated; longer titles are cut to 47
// characters plus an ellipsis.
func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= 50 {
		return title
	}
	return string(runes[:47]) + "…"
}

func addMessage(id int, title string) string {
	return fmt.Sprintf("Add task #%d: %s", id, truncateTitle(title))
}

func updateMessage(id int, title string) string {
	return fmt.Sprintf("Update task #%d: %s", id, truncateTitle(title))
}

func completeTaskMessage(id int, title string) string {
	return fmt.Sprintf("Complete task #%d: %s", id, truncateTitle(title))
}

func completeStoryMessage(id int, title string, childCount int) string {
	return fmt.Sprintf("Complete story #%d: %s (with %d tasks)", id, truncateTitle(title), childCount)
}

func reopenMessage(id int, title string) string {
	return fmt.Sprintf("Reopen task #%d: %s", id, truncateTitle(title))
}

func deleteMessage(id int, title string) string {
	return fmt.Sprintf("Delete task #%d: %s", id, truncateTitle(title))
}

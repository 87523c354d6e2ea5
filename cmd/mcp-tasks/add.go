package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/untoldecay/mcp-tasks/internal/cliui"
	"github.com/untoldecay/mcp-tasks/internal/engine"
	"github.com/untoldecay/mcp-tasks/internal/types"
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a new task",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		interactive, _ := cmd.Flags().GetBool("interactive")
		title := ""
		if len(args) == 1 {
			title = args[0]
		}

		category, _ := cmd.Flags().GetString("category")
		description, _ := cmd.Flags().GetString("description")
		design, _ := cmd.Flags().GetString("design")
		taskType, _ := cmd.Flags().GetString("type")

		if category == "" {
			if prefs, err := cliui.LoadPrefs(); err == nil {
				category = prefs.DefaultCategory
			}
		}

		if interactive || title == "" {
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().Title("Title").Value(&title).Validate(func(s string) error {
						if s == "" {
							return errEmptyTitle
						}
						return nil
					}),
					huh.NewText().Title("Description").Value(&description),
					huh.NewText().Title("Design").Value(&design),
					huh.NewInput().Title("Category").Value(&category),
					huh.NewSelect[string]().Title("Type").
						Options(
							huh.NewOption("Task", "task"),
							huh.NewOption("Bug", "bug"),
							huh.NewOption("Feature", "feature"),
							huh.NewOption("Story", "story"),
							huh.NewOption("Chore", "chore"),
						).Value(&taskType),
				),
			).WithTheme(huh.ThemeDracula())
			if err := form.Run(); err != nil {
				if err == huh.ErrUserAborted {
					return
				}
				fatalf("form error: %v", err)
			}
		}

		e, _, err := wireEngine()
		if err != nil {
			fatalf("%v", err)
		}
		reply, err := e.AddTask(context.Background(), engine.AddTaskInput{
			Category:    category,
			Title:       title,
			Description: description,
			Design:      design,
			Type:        types.TaskType(taskType),
		})
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Println(reply.Message)
		printJSON(reply.Data)
	},
}

var errEmptyTitle = errors.New("title is required")

func init() {
	addCmd.Flags().Bool("interactive", false, "use an interactive form")
	addCmd.Flags().String("category", "", "task category")
	addCmd.Flags().String("description", "", "task description")
	addCmd.Flags().String("design", "", "task design notes")
	addCmd.Flags().String("type", "task", "task type (task, bug, feature, story, chore)")
}

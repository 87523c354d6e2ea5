package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/untoldecay/mcp-tasks/internal/cliui"
	"github.com/untoldecay/mcp-tasks/internal/query"
	"github.com/untoldecay/mcp-tasks/internal/types"
)

var statusStyles = map[types.Status]lipgloss.Style{
	types.StatusOpen:       lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	types.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	types.StatusBlocked:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	types.StatusClosed:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	types.StatusDeleted:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
}

func renderStatus(s types.Status) string {
	if !cliui.ShouldUseColor() {
		return string(s)
	}
	if style, ok := statusStyles[s]; ok {
		return style.Render(string(s))
	}
	return string(s)
}

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "List tasks matching a filter",
	Run: func(cmd *cobra.Command, args []string) {
		_, s, err := wireEngine()
		if err != nil {
			fatalf("%v", err)
		}

		params := query.Params{}
		if v, _ := cmd.Flags().GetInt("task-id"); cmd.Flags().Changed("task-id") {
			params.TaskID = &v
		}
		if v, _ := cmd.Flags().GetInt("parent-id"); cmd.Flags().Changed("parent-id") {
			params.ParentID = &v
		}
		params.Category, _ = cmd.Flags().GetString("category")
		if v, _ := cmd.Flags().GetString("type"); v != "" {
			params.Type = types.TaskType(v)
		}
		if v, _ := cmd.Flags().GetString("status"); v != "" {
			params.Status = types.Status(v)
		}
		params.TitlePattern, _ = cmd.Flags().GetString("title-pattern")
		params.Limit, _ = cmd.Flags().GetInt("limit")
		params.Unique, _ = cmd.Flags().GetBool("unique")

		all := make(map[int]*types.Task)
		for _, t := range s.All() {
			all[t.ID] = t
		}
		res, err := query.Select(all, params)
		if err != nil {
			fatalf("%v", err)
		}

		verbose, _ := cmd.Flags().GetBool("verbose")
		for _, et := range res.Tasks {
			blocked := ""
			if et.Blocked != nil && *et.Blocked {
				blocked = fmt.Sprintf(" [blocked by %v]", et.BlockingIDs)
			}
			fmt.Printf("#%d %s (%s/%s)%s\n", et.ID, et.Title, et.Type, renderStatus(et.Status), blocked)
			if verbose && et.Description != "" {
				fmt.Println(cliui.RenderMarkdown(et.Description))
			}
		}
		fmt.Printf("%d of %d matched\n", res.Metadata.ReturnedCount, res.Metadata.TotalMatches)
	},
}

func init() {
	selectCmd.Flags().Int("task-id", 0, "exact task id")
	selectCmd.Flags().Int("parent-id", 0, "exact parent id")
	selectCmd.Flags().String("category", "", "category filter")
	selectCmd.Flags().String("type", "", "type filter")
	selectCmd.Flags().String("status", "", "status filter (default open)")
	selectCmd.Flags().String("title-pattern", "", "exact title match")
	selectCmd.Flags().Int("limit", 5, "max results")
	selectCmd.Flags().Bool("unique", false, "error if more than one task matches (requires --limit 1)")
	selectCmd.Flags().Bool("verbose", false, "render each task's description as markdown")
}

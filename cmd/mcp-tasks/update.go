package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/untoldecay/mcp-tasks/internal/engine"
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields on an existing task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			fatalf("invalid task id %q", args[0])
		}

		in := engine.UpdateTaskInput{TaskID: id}
		if v, _ := cmd.Flags().GetString("title"); cmd.Flags().Changed("title") {
			in.Title = &v
		}
		if v, _ := cmd.Flags().GetString("description"); cmd.Flags().Changed("description") {
			in.Description = &v
		}
		if v, _ := cmd.Flags().GetString("design"); cmd.Flags().Changed("design") {
			in.Design = &v
		}
		if v, _ := cmd.Flags().GetString("category"); cmd.Flags().Changed("category") {
			in.Category = &v
		}
		if v, _ := cmd.Flags().GetStringSlice("append-shared-context"); len(v) > 0 {
			in.AppendSharedContext = v
		}

		e, _, err := wireEngine()
		if err != nil {
			fatalf("%v", err)
		}
		reply, err := e.UpdateTask(context.Background(), in)
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Println(reply.Message)
		printJSON(reply.Data)
	},
}

func init() {
	updateCmd.Flags().String("title", "", "new title")
	updateCmd.Flags().String("description", "", "new description")
	updateCmd.Flags().String("design", "", "new design notes")
	updateCmd.Flags().String("category", "", "new category")
	updateCmd.Flags().StringSlice("append-shared-context", nil, "entries to append to shared-context")
}

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/untoldecay/mcp-tasks/internal/engine"
)

var workOnCmd = &cobra.Command{
	Use:   "work-on <id>",
	Short: "Switch to the branch/worktree for a task and record it as in-progress",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			fatalf("invalid task id %q", args[0])
		}
		e, _, err := wireEngine()
		if err != nil {
			fatalf("%v", err)
		}
		reply, err := e.WorkOn(context.Background(), engine.WorkOnInput{TaskID: id})
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Println(reply.Message)
		printJSON(reply.Data)
	},
}

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/untoldecay/mcp-tasks/internal/engine"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task (rejects non-closed children)",
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
		reply, err := e.DeleteTask(context.Background(), engine.DeleteTaskInput{TaskID: id})
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Println(reply.Message)
		printJSON(reply.Data)
	},
}

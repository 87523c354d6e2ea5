package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/untoldecay/mcp-tasks/internal/engine"
)

var reopenCmd = &cobra.Command{
	Use:   "reopen <id>",
	Short: "Reopen a closed or deleted task",
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
		reply, err := e.ReopenTask(context.Background(), engine.ReopenTaskInput{TaskID: id})
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Println(reply.Message)
		printJSON(reply.Data)
	},
}

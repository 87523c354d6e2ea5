package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/untoldecay/mcp-tasks/internal/engine"
)

var completeCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Complete a task, story, or story-child",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			fatalf("invalid task id %q", args[0])
		}
		comment, _ := cmd.Flags().GetString("comment")

		e, _, err := wireEngine()
		if err != nil {
			fatalf("%v", err)
		}
		reply, err := e.CompleteTask(context.Background(), engine.CompleteTaskInput{
			TaskID:            &id,
			CompletionComment: comment,
		})
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Println(reply.Message)
		if reply.Warning != "" {
			fmt.Println("warning:", reply.Warning)
		}
		printJSON(reply.Data)
	},
}

func init() {
	completeCmd.Flags().String("comment", "", "completion comment appended to the description")
}

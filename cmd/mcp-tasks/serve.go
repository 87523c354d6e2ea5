package main

import (
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the long-running task server for this project",
	Run: func(cmd *cobra.Command, args []string) {
		watch, _ := cmd.Flags().GetBool("watch")
		serverArgs := []string{"--dir", projectDir}
		if watch {
			serverArgs = append(serverArgs, "--watch")
		}
		c := exec.Command("mcp-tasks-server", serverArgs...)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			fatalf("starting mcp-tasks-server: %v", err)
		}
	},
}

func init() {
	serveCmd.Flags().Bool("watch", false, "reload the store on external record-file changes")
}

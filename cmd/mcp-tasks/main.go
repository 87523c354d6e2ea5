// Command mcp-tasks is the companion CLI: a thin wrapper calling the same
// engine and query code as the server, for humans operating on a project
// directly from a shell.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var projectDir string

var rootCmd = &cobra.Command{
	Use:   "mcp-tasks",
	Short: "Manage hierarchical tasks backed by git-tracked record files",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&projectDir, "dir", ".", "project directory")
	rootCmd.AddCommand(addCmd, updateCmd, completeCmd, reopenCmd, deleteCmd, selectCmd, workOnCmd, serveCmd, configCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

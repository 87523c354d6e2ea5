package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/untoldecay/mcp-tasks/internal/cliui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set companion-CLI preferences (not the project's .mcp-tasks.edn)",
	Run: func(cmd *cobra.Command, args []string) {
		prefs, err := cliui.LoadPrefs()
		if err != nil {
			fatalf("loading preferences: %v", err)
		}

		changed := false
		if cmd.Flags().Changed("default-category") {
			prefs.DefaultCategory, _ = cmd.Flags().GetString("default-category")
			changed = true
		}
		if cmd.Flags().Changed("no-color") {
			prefs.NoColor, _ = cmd.Flags().GetBool("no-color")
			changed = true
		}
		if changed {
			if err := prefs.Save(); err != nil {
				fatalf("saving preferences: %v", err)
			}
		}
		fmt.Printf("default-category = %q\nno-color = %v\n", prefs.DefaultCategory, prefs.NoColor)
	},
}

func init() {
	configCmd.Flags().String("default-category", "", "default category for `add`")
	configCmd.Flags().Bool("no-color", false, "disable colored select output")
}

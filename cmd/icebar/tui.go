package main

import (
	"github.com/spf13/cobra"

	"github.com/john-rice/Ice/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI",
	Long: `Launch the interactive terminal user interface.

Key bindings:
  1/2/3       Toggle the visible/hidden/always-hidden section
  r           Refresh
  ?           Show help
  q           Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run(client)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// sectionNames are the names accepted by the section commands.
var sectionNames = []string{"visible", "hidden", "always-hidden"}

var showCmd = &cobra.Command{
	Use:       "show <section>",
	Short:     "Show a menu bar section",
	Long:      "Show a menu bar section. Sections the reveal depends on are shown too.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: sectionNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		return client.ShowSection(args[0])
	},
}

var hideCmd = &cobra.Command{
	Use:       "hide <section>",
	Short:     "Hide a menu bar section",
	Long:      "Hide a menu bar section. Sections that cannot stay visible without it are hidden too.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: sectionNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		return client.HideSection(args[0])
	},
}

var toggleCmd = &cobra.Command{
	Use:       "toggle <section>",
	Short:     "Toggle a menu bar section",
	Args:      cobra.ExactArgs(1),
	ValidArgs: sectionNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.ToggleSection(args[0]); err != nil {
			return err
		}
		hidden, err := client.SectionHidden(args[0])
		if err != nil {
			return err
		}
		state := "shown"
		if hidden {
			state = "hidden"
		}
		fmt.Printf("%s: %s\n", args[0], state)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(hideCmd)
	rootCmd.AddCommand(toggleCmd)
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/john-rice/Ice/internal/config"
	"github.com/john-rice/Ice/internal/icedbus"
	"github.com/john-rice/Ice/internal/state"
)

var statusOpts struct {
	output string
}

// sectionStatus is one row of status output.
type sectionStatus struct {
	Name    string `json:"name" yaml:"name"`
	Hidden  bool   `json:"hidden" yaml:"hidden"`
	Changed string `json:"changed,omitempty" yaml:"changed,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show section visibility",
	Long: `Show the visibility of all menu bar sections.

The default table output includes when each section last changed,
taken from the daemon's shared state file. Use --output json or
--output yaml for machine-readable output.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.output, "output", "o", "table",
		"Output format: table, json, yaml")
}

func runStatus(cmd *cobra.Command, args []string) error {
	sections, err := client.ListSections()
	if err != nil {
		return err
	}

	shared, err := state.LoadSharedState(config.StatePath())
	if err != nil {
		logger.Warn("failed to load shared state", "error", err)
		shared = state.DefaultSharedState()
	}

	rows := buildStatus(sections, shared)

	switch statusOpts.output {
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SECTION\tSTATE\tCHANGED")
		for _, row := range rows {
			st := "shown"
			if row.Hidden {
				st = "hidden"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", row.Name, st, row.Changed)
		}
		return w.Flush()
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "yaml":
		data, err := yaml.Marshal(rows)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	default:
		return fmt.Errorf("unknown output format %q", statusOpts.output)
	}
}

func buildStatus(sections []icedbus.SectionState, shared *state.SharedState) []sectionStatus {
	rows := make([]sectionStatus, 0, len(sections))
	for _, sec := range sections {
		row := sectionStatus{Name: sec.Name, Hidden: sec.Hidden}
		if ts := shared.ChangedAt[sec.Name]; ts > 0 {
			row.Changed = humanize.Time(time.Unix(ts, 0))
		}
		rows = append(rows, row)
	}
	return rows
}

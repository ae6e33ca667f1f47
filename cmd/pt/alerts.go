package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/rpggio/projtrack/internal/alert"
	"github.com/spf13/cobra"
)

var alertsJSON bool

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show everything that needs attention, most urgent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		alerts, err := tracker.Engine.Alerts(cmd.Context())
		if err != nil {
			return err
		}

		if alertsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(alerts)
		}

		if len(alerts) == 0 {
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Fprintf(out, "%s\n", green("✓ No alerts"))
			return nil
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		counts := map[alert.Severity]int{}
		for _, a := range alerts {
			counts[a.Severity]++
			paint := severityColor(a.Severity)
			fmt.Fprintf(out, "%s %s: %s\n", paint(severityIcon(a.Severity)), a.ProjectName, a.Message)
			if a.Details != "" {
				fmt.Fprintf(out, "    %s\n", gray(a.Details))
			}
		}
		fmt.Fprintf(out, "\n%d critical, %d warning, %d info\n",
			counts[alert.SeverityCritical], counts[alert.SeverityWarning], counts[alert.SeverityInfo])
		return nil
	},
}

func severityColor(s alert.Severity) func(a ...any) string {
	switch s {
	case alert.SeverityCritical:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case alert.SeverityWarning:
		return color.New(color.FgYellow).SprintFunc()
	default:
		return color.New(color.FgCyan).SprintFunc()
	}
}

func severityIcon(s alert.Severity) string {
	switch s {
	case alert.SeverityCritical:
		return "✗"
	case alert.SeverityWarning:
		return "⚠"
	default:
		return "•"
	}
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsJSON, "json", false, "print alerts as JSON")
	rootCmd.AddCommand(alertsCmd)
}

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the tracker database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Fprintf(out, "%s Initialized project tracker\n\n", green("✓"))
		fmt.Fprintf(out, "  Database:      %s\n", cyan(tracker.Config.DB.Path))
		fmt.Fprintf(out, "  Projects root: %s\n", cyan(tracker.Config.Projects.Root))
		fmt.Fprintf(out, "  Provider:      %s\n\n", cyan(tracker.Provider.Name()))
		fmt.Fprintf(out, "%s Next: %s\n", gray("→"), gray("pt scan"))
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Rescan the projects directory and update the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		blue := color.New(color.FgBlue, color.Bold).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		fmt.Fprintf(out, "%s\n", blue("Scanning projects in "+tracker.Config.Projects.Root+"..."))
		report, err := tracker.Engine.Scan(cmd.Context())
		if err != nil {
			return err
		}

		for _, id := range report.Removed {
			fmt.Fprintf(out, "  %s\n", red("✗ Removed "+id))
		}
		for _, id := range report.Upserted {
			fmt.Fprintf(out, "  ✓ %s\n", id)
		}
		if report.HealthUpdated > 0 {
			fmt.Fprintf(out, "\n  Health updated for %d projects (%s)\n", report.HealthUpdated, report.Provider)
		}
		fmt.Fprintf(out, "\n%s\n", green(fmt.Sprintf("✓ Scan complete! %d projects updated", len(report.Upserted))))
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Refresh health scores through the metadata provider",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		n, err := tracker.Engine.RefreshHealth(cmd.Context())
		if err != nil {
			return err
		}
		if n == 0 {
			gray := color.New(color.FgHiBlack).SprintFunc()
			fmt.Fprintf(out, "%s\n", gray(fmt.Sprintf("No health scores available from %s provider", tracker.Provider.Name())))
			return nil
		}
		fmt.Fprintf(out, "Updated health for %d projects\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(healthCmd)
}

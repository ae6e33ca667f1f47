package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/rpggio/projtrack/internal/domain/project"
	"github.com/spf13/cobra"
)

var (
	cronDescription string
	servicePurpose  string
	serviceCost     float64
)

// notFound rewrites a missing-project error into something a user can act on.
func notFound(name string, err error) error {
	if errors.Is(err, project.ErrProjectNotFound) {
		return fmt.Errorf("project %q not found (run 'pt scan' or check 'pt list')", name)
	}
	return err
}

func added(cmd *cobra.Command, format string, args ...any) {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", green("✓ "+fmt.Sprintf(format, args...)))
}

var addAgentCmd = &cobra.Command{
	Use:   "add-agent <project> <agent-name> [role]",
	Short: "Declare an AI agent working on a project",
	Long: `Declare an AI agent working on a project.

Declarations made here last until the next scan, which rebuilds the roster
from the project's TODO.md.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := tracker.Projects.FindByName(cmd.Context(), args[0])
		if err != nil {
			return notFound(args[0], err)
		}
		role := ""
		if len(args) == 3 {
			role = args[2]
		}
		if _, err := tracker.Projects.AddAgent(cmd.Context(), p.ID, args[1], role); err != nil {
			return err
		}
		added(cmd, "Added AI agent '%s' to %s", args[1], p.Name)
		return nil
	},
}

var addCronCmd = &cobra.Command{
	Use:   "add-cron <project> <schedule> <command>",
	Short: "Declare a cron job for a project",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := tracker.Projects.FindByName(cmd.Context(), args[0])
		if err != nil {
			return notFound(args[0], err)
		}
		if _, err := tracker.Projects.AddCronJob(cmd.Context(), p.ID, args[1], args[2], cronDescription); err != nil {
			return err
		}
		added(cmd, "Added cron job to %s", p.Name)
		return nil
	},
}

var addServiceCmd = &cobra.Command{
	Use:   "add-service <project> <service-name>",
	Short: "Declare an external service a project depends on",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := tracker.Projects.FindByName(cmd.Context(), args[0])
		if err != nil {
			return notFound(args[0], err)
		}
		var cost *float64
		if cmd.Flags().Changed("cost") {
			cost = &serviceCost
		}
		if _, err := tracker.Projects.AddDependency(cmd.Context(), p.ID, args[1], servicePurpose, cost); err != nil {
			return err
		}
		added(cmd, "Added service '%s' to %s", args[1], p.Name)
		return nil
	},
}

var tasksCmd = &cobra.Command{
	Use:   "tasks <project>",
	Short: "List a project's work items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		p, err := tracker.Projects.FindByName(cmd.Context(), args[0])
		if err != nil {
			return notFound(args[0], err)
		}
		tasks, err := tracker.Engine.Tasks(cmd.Context(), p.ID)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			fmt.Fprintf(out, "No tasks found for %s\n", p.Name)
			return nil
		}

		green := color.New(color.FgGreen).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		done := 0
		for _, t := range tasks {
			if t.Done {
				done++
				fmt.Fprintf(out, "  %s %s\n", green("[x]"), gray(t.Text))
				continue
			}
			fmt.Fprintf(out, "  [ ] %s\n", t.Text)
		}
		fmt.Fprintf(out, "\n%d of %d done\n", done, len(tasks))
		return nil
	},
}

var fixIndexCmd = &cobra.Command{
	Use:   "fix-index <project>",
	Short: "Ask the metadata provider to repair a project's index document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := tracker.Projects.FindByName(cmd.Context(), args[0])
		if err != nil {
			return notFound(args[0], err)
		}
		fixed, err := tracker.Engine.FixIndex(cmd.Context(), p.ID)
		if err != nil {
			return err
		}
		if !fixed {
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", yellow(fmt.Sprintf("Index of %s was not changed (%s provider)", p.Name, tracker.Provider.Name())))
			return nil
		}
		added(cmd, "Repaired index of %s", p.Name)
		return nil
	},
}

func init() {
	addCronCmd.Flags().StringVar(&cronDescription, "description", "", "what the job does")
	addServiceCmd.Flags().StringVar(&servicePurpose, "purpose", "", "what the service is used for")
	addServiceCmd.Flags().Float64Var(&serviceCost, "cost", 0, "monthly cost in dollars")

	rootCmd.AddCommand(addAgentCmd)
	rootCmd.AddCommand(addCronCmd)
	rootCmd.AddCommand(addServiceCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(fixIndexCmd)
}

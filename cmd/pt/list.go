package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"github.com/rpggio/projtrack/internal/domain/project"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var listSort string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		projects, err := tracker.Projects.List(cmd.Context(), listSort)
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Fprintf(out, "%s\n", yellow("No projects found. Run 'pt scan' first."))
			return nil
		}

		fmt.Fprintln(out, renderProjects(projects))
		bold := color.New(color.Bold).SprintFunc()
		fmt.Fprintf(out, "\n%s\n", bold(fmt.Sprintf("Total: %d projects", len(projects))))
		return nil
	},
}

func renderProjects(projects []project.Project) string {
	cell := lipgloss.NewStyle().Padding(0, 1)
	right := cell.Align(lipgloss.Right)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Name", "Status", "Phase", "Progress", "Health", "Last Modified").
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 3 || col == 4 {
				return right
			}
			return cell
		})

	for _, p := range projects {
		phase := p.Phase
		if phase == "" {
			phase = "-"
		}
		health := "-"
		if p.HealthScore != nil {
			health = fmt.Sprintf("%d %s", *p.HealthScore, p.HealthGrade)
		}
		lastMod := "unknown"
		if !p.LastModified.IsZero() {
			lastMod = p.LastModified.Format("2006-01-02")
		}
		t.Row(p.Name, string(p.Status), phase, fmt.Sprintf("%d%%", p.CompletionPct), health, lastMod)
	}
	return t.String()
}

var statusCmd = &cobra.Command{
	Use:   "status <name>",
	Short: "Show one project in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := tracker.Projects.FindByName(cmd.Context(), args[0])
		if err != nil {
			return notFound(args[0], err)
		}
		printStatus(cmd, p)
		return nil
	},
}

func printStatus(cmd *cobra.Command, p *project.Project) {
	out := cmd.OutOrStdout()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()
	title := cases.Title(language.English)

	fmt.Fprintf(out, "\n%s\n", cyan(p.Name))
	fmt.Fprintf(out, "Path: %s\n", p.Path)
	fmt.Fprintf(out, "Status: %s\n", green(title.String(string(p.Status))))
	if p.Phase != "" {
		fmt.Fprintf(out, "Phase: %s\n", p.Phase)
	}
	fmt.Fprintf(out, "Progress: %d%%\n", p.CompletionPct)
	if p.HealthScore != nil {
		fmt.Fprintf(out, "Health: %d (%s)\n", *p.HealthScore, p.HealthGrade)
	}
	if p.LastModified.IsZero() {
		fmt.Fprintln(out, "Last Modified: unknown")
	} else {
		fmt.Fprintf(out, "Last Modified: %s\n", p.LastModified.Format("2006-01-02 15:04"))
	}
	if p.ProjectType != "" {
		fmt.Fprintf(out, "Type: %s\n", p.ProjectType)
	}
	if p.Description != "" {
		fmt.Fprintf(out, "\n%s\n", p.Description)
	}

	if len(p.AIAgents) > 0 {
		fmt.Fprintf(out, "\n%s\n", bold("AI Agents:"))
		for _, a := range p.AIAgents {
			role := ""
			if a.Role != "" {
				role = " - " + a.Role
			}
			fmt.Fprintf(out, "  • %s%s\n", a.Name, role)
		}
	}
	if len(p.CronJobs) > 0 {
		fmt.Fprintf(out, "\n%s\n", bold("Cron Jobs:"))
		for _, j := range p.CronJobs {
			fmt.Fprintf(out, "  • %s: %s\n", j.Schedule, j.Command)
		}
	}
	if len(p.Services) > 0 {
		fmt.Fprintf(out, "\n%s\n", bold("Services:"))
		for _, s := range p.Services {
			cost := ""
			if s.CostMonthly != nil {
				cost = fmt.Sprintf(" ($%.2f/mo)", *s.CostMonthly)
			}
			fmt.Fprintf(out, "  • %s%s\n", s.Name, cost)
		}
	}
	fmt.Fprintln(out)
}

func init() {
	listCmd.Flags().StringVar(&listSort, "sort", "name",
		"sort key: name, status, last_modified or completion_pct (append ' DESC' to reverse)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statusCmd)
}

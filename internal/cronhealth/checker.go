// Package cronhealth checks declared cron jobs against the live crontab and
// the logs they leave behind.
package cronhealth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/rpggio/projtrack/internal/extract"
	"github.com/rpggio/projtrack/internal/sysexec"
)

// IssueType classifies a cron job problem.
type IssueType string

const (
	IssueInvalidSchedule IssueType = "invalid_schedule"
	IssueNotInstalled    IssueType = "not_installed"
	IssueMissedRun       IssueType = "missed_run"
	IssueExecutionError  IssueType = "execution_error"
)

// Issue is one problem found with one declared job.
type Issue struct {
	Type        IssueType  `json:"type"`
	Schedule    string     `json:"schedule"`
	Command     string     `json:"command"`
	Description string     `json:"description,omitempty"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	ExpectedRun *time.Time `json:"expected_run,omitempty"`
	Message     string     `json:"message"`
}

// Config tunes the checker.
type Config struct {
	CrontabTimeout time.Duration
	Grace          time.Duration
	TailLines      int
}

// DefaultConfig returns the standard checker settings.
func DefaultConfig() Config {
	return Config{
		CrontabTimeout: 5 * time.Second,
		Grace:          time.Hour,
		TailLines:      100,
	}
}

// Crontab is the set of active lines of the user's crontab.
type Crontab []string

// Checker evaluates cron jobs.
type Checker struct {
	runner sysexec.Runner
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
	loc    *time.Location
}

// NewChecker creates a checker that queries the crontab through runner.
func NewChecker(runner sysexec.Runner, cfg Config, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	def := DefaultConfig()
	if cfg.CrontabTimeout <= 0 {
		cfg.CrontabTimeout = def.CrontabTimeout
	}
	if cfg.Grace <= 0 {
		cfg.Grace = def.Grace
	}
	if cfg.TailLines <= 0 {
		cfg.TailLines = def.TailLines
	}
	return &Checker{runner: runner, cfg: cfg, logger: logger, now: time.Now, loc: time.Local}
}

// WithClock replaces the wall clock, for tests.
func (c *Checker) WithClock(now func() time.Time) *Checker {
	c.now = now
	return c
}

// LoadCrontab reads the active crontab lines. A failed query yields an empty
// crontab so every job reads as not installed.
func (c *Checker) LoadCrontab(ctx context.Context) Crontab {
	out, err := c.runner.Run(ctx, sysexec.Command{
		Name:    "crontab",
		Args:    []string{"-l"},
		Timeout: c.cfg.CrontabTimeout,
	})
	if err != nil {
		c.logger.Warn("crontab query failed", "error", err)
		return nil
	}

	var lines Crontab
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// Installed reports whether any crontab line mentions command or the base
// name of its executable path.
func (ct Crontab) Installed(command string) bool {
	base := filepath.Base(strings.TrimSpace(command))
	for _, line := range ct {
		if strings.Contains(line, command) {
			return true
		}
		if base != "." && base != "/" && base != "" && strings.Contains(line, base) {
			return true
		}
	}
	return false
}

// Check loads the crontab and checks every job of one project.
func (c *Checker) Check(ctx context.Context, projectPath string, jobs []extract.CronJob) []Issue {
	if len(jobs) == 0 {
		return nil
	}
	return c.CheckJobs(projectPath, jobs, c.LoadCrontab(ctx))
}

// CheckJobs checks jobs against an already loaded crontab.
func (c *Checker) CheckJobs(projectPath string, jobs []extract.CronJob, crontab Crontab) []Issue {
	var issues []Issue
	for _, job := range jobs {
		issues = append(issues, c.checkJob(projectPath, job, crontab)...)
	}
	return issues
}

func (c *Checker) checkJob(projectPath string, job extract.CronJob, crontab Crontab) []Issue {
	if job.Schedule == "" || job.Command == "" {
		return nil
	}
	base := Issue{Schedule: job.Schedule, Command: job.Command, Description: job.Description}

	if !ValidSchedule(job.Schedule) {
		issue := base
		issue.Type = IssueInvalidSchedule
		issue.Message = "Invalid cron schedule: " + job.Schedule
		return []Issue{issue}
	}

	if !crontab.Installed(job.Command) {
		issue := base
		issue.Type = IssueNotInstalled
		issue.Message = "Cron job not found in crontab"
		return []Issue{issue}
	}

	logPath, ok := FindLogFile(projectPath)
	if !ok {
		return nil
	}
	res, err := AnalyzeLog(logPath, c.cfg.TailLines, c.loc)
	if err != nil {
		c.logger.Warn("cron log unreadable", "path", logPath, "error", err)
		return nil
	}
	if !res.Found {
		c.logger.Debug("no timestamp in cron log", "path", logPath)
		return nil
	}

	now := c.now()
	lastRun := res.LastRun
	var issues []Issue

	if expected, ok := ExpectedNextRun(job.Schedule, lastRun); ok && now.After(expected.Add(c.cfg.Grace)) {
		issue := base
		issue.Type = IssueMissedRun
		issue.LastRun = &lastRun
		issue.ExpectedRun = &expected
		issue.Message = fmt.Sprintf("Job hasn't run since %s (expected: %s)", FormatAgo(now, lastRun), job.Schedule)
		issues = append(issues, issue)
	}

	if res.Failed {
		issue := base
		issue.Type = IssueExecutionError
		issue.LastRun = &lastRun
		issue.Message = fmt.Sprintf("Last execution failed (%s)", FormatAgo(now, lastRun))
		issues = append(issues, issue)
	}

	return issues
}

// FormatAgo renders the gap between t and now in the largest whole unit.
func FormatAgo(now, t time.Time) string {
	diff := now.Sub(t)
	days := int(diff.Hours() / 24)
	switch {
	case days > 0:
		return plural(days, "day") + " ago"
	case diff >= time.Hour:
		return plural(int(diff.Hours()), "hour") + " ago"
	case diff >= time.Minute:
		return plural(int(diff.Minutes()), "minute") + " ago"
	default:
		return "just now"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

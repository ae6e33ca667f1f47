package alert

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rpggio/projtrack/internal/cronhealth"
	"github.com/rpggio/projtrack/internal/extract"
	"github.com/rpggio/projtrack/internal/provider"
)

// DefaultStalledDays is the inactivity threshold for the stalled detector.
const DefaultStalledDays = 60

const (
	blockerDetailLen = 100
	reviewSummaryLen = 80
)

// Config tunes the default detector battery.
type Config struct {
	StalledDays int
	Now         func() time.Time
}

// DefaultDetectors returns the standard battery in its fixed order.
func DefaultDetectors(cfg Config, checker *cronhealth.Checker, prov provider.Provider, logger *slog.Logger) []Detector {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return []Detector{
		BlockedDetector{},
		ReviewDetector{},
		&CronDetector{Checker: checker},
		StalledDetector{Days: cfg.StalledDays, Now: cfg.Now},
		IndexDetector{},
		&FrontmatterDetector{Provider: prov, Logger: logger},
		TodoDetector{},
	}
}

// BlockedDetector reports declared blockers, or roadmap gaps when a project
// has no blocker.
type BlockedDetector struct{}

func (BlockedDetector) Name() string { return "blocked" }

func (BlockedDetector) Detect(ctx context.Context, projects []Project) []Alert {
	var alerts []Alert
	for i := range projects {
		p := &projects[i]
		if !p.HasTodo {
			continue
		}

		if items, ok := firstOpenSection(p.Todo, "blockers"); ok {
			alerts = append(alerts, p.alert("blocked", SeverityCritical, "Project blocked", clip(items[0], blockerDetailLen)))
			continue
		}

		for _, section := range extract.FindSections(p.Todo, 2, 3, "what's missing") {
			items := extract.BulletItems(section.Lines)
			if len(items) == 0 {
				continue
			}
			if !containsNone(items) && p.Status != extract.StatusComplete {
				alerts = append(alerts, p.alert("gaps", SeverityInfo, "Roadmap gaps", fmt.Sprintf("%d items in backlog", len(items))))
			}
			break
		}
	}
	return alerts
}

// firstOpenSection returns the items of the first matching section that
// lists something other than "None".
func firstOpenSection(content, prefix string) ([]string, bool) {
	for _, section := range extract.FindSections(content, 2, 3, prefix) {
		items := extract.BulletItems(section.Lines)
		if len(items) > 0 && !containsNone(items) {
			return items, true
		}
	}
	return nil, false
}

func containsNone(items []string) bool {
	for _, it := range items {
		if strings.EqualFold(strings.TrimSpace(it), "none") {
			return true
		}
	}
	return false
}

// ReviewDetector reports code reviews whose action items are not all done.
type ReviewDetector struct{}

func (ReviewDetector) Name() string { return "code_review" }

func (ReviewDetector) Detect(ctx context.Context, projects []Project) []Alert {
	var alerts []Alert
	for i := range projects {
		p := &projects[i]
		if p.Review == nil || p.Review.CompletionPct >= 100 {
			continue
		}
		r := p.Review

		severity := SeverityWarning
		verdict := strings.ToLower(r.Verdict)
		if strings.Contains(verdict, "production") || strings.Contains(verdict, "approved") {
			severity = SeverityInfo
		}

		details := "Reviewer: " + r.Reviewer
		if r.Summary != "" {
			details += " | " + prefix(r.Summary, reviewSummaryLen) + "..."
		}
		alerts = append(alerts, p.alert("code_review", severity, "Code review: "+r.Verdict, details))
	}
	return alerts
}

// CronDetector reports cron health issues. The crontab is read once per
// Detect call, and only when some project declares a job.
type CronDetector struct {
	Checker *cronhealth.Checker
}

func (d *CronDetector) Name() string { return "cron" }

func (d *CronDetector) Detect(ctx context.Context, projects []Project) []Alert {
	if d.Checker == nil {
		return nil
	}

	var crontab cronhealth.Crontab
	loaded := false
	var alerts []Alert
	for i := range projects {
		p := &projects[i]
		if len(p.CronJobs) == 0 {
			continue
		}
		if !loaded {
			crontab = d.Checker.LoadCrontab(ctx)
			loaded = true
		}

		for _, issue := range d.Checker.CheckJobs(p.Path, p.Jobs(), crontab) {
			details := issue.Description
			if details == "" {
				details = issue.Command
			}
			alerts = append(alerts, p.alert("cron_"+string(issue.Type), CronSeverity(issue.Type), issue.Message, details))
		}
	}
	return alerts
}

// CronSeverity maps a cron issue to an alert severity.
func CronSeverity(t cronhealth.IssueType) Severity {
	switch t {
	case cronhealth.IssueExecutionError, cronhealth.IssueMissedRun:
		return SeverityCritical
	default:
		return SeverityWarning
	}
}

// StalledDetector reports projects idle for more than Days days.
type StalledDetector struct {
	Days int
	Now  func() time.Time
}

func (StalledDetector) Name() string { return "stalled" }

func (d StalledDetector) Detect(ctx context.Context, projects []Project) []Alert {
	days := d.Days
	if days <= 0 {
		days = DefaultStalledDays
	}
	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)

	var alerts []Alert
	for i := range projects {
		p := &projects[i]
		if p.LastModified.IsZero() || !p.LastModified.Before(cutoff) {
			continue
		}
		idle := int(now.Sub(p.LastModified).Hours() / 24)
		alerts = append(alerts, p.alert("stalled", SeverityWarning,
			fmt.Sprintf("No work in %d days", idle),
			"Last modified: "+p.LastModified.Format("2006-01-02")))
	}
	return alerts
}

// IndexDetector reports missing or structurally invalid index documents.
type IndexDetector struct{}

func (IndexDetector) Name() string { return "index" }

func (IndexDetector) Detect(ctx context.Context, projects []Project) []Alert {
	var alerts []Alert
	for i := range projects {
		p := &projects[i]
		switch {
		case !p.HasIndex:
			alerts = append(alerts, p.alert("missing_index", SeverityWarning, "Missing project index",
				"Required by Critical Rule #0: Every project must have an index file"))
		case !p.IndexIsValid:
			alerts = append(alerts, p.alert("invalid_index", SeverityWarning, "Incomplete project index",
				"Index exists but is missing required sections or YAML tags"))
		}
	}
	return alerts
}

// FrontmatterDetector asks the provider to check each index document.
type FrontmatterDetector struct {
	Provider provider.Provider
	Logger   *slog.Logger
}

func (d *FrontmatterDetector) Name() string { return "frontmatter" }

func (d *FrontmatterDetector) Detect(ctx context.Context, projects []Project) []Alert {
	if d.Provider == nil {
		return nil
	}
	var alerts []Alert
	for i := range projects {
		p := &projects[i]
		if p.IndexPath == "" {
			continue
		}
		result, err := d.Provider.CheckFile(ctx, p.IndexPath)
		if err != nil {
			if d.Logger != nil {
				d.Logger.Warn("frontmatter check failed", "project", p.ID, "file", p.IndexPath, "error", err)
			}
			continue
		}
		if result.Valid {
			continue
		}
		details := "Invalid YAML frontmatter structure"
		if len(result.Issues) > 0 {
			details = result.Issues[0]
		}
		alerts = append(alerts, p.alert("invalid_frontmatter", SeverityWarning, "Invalid frontmatter", details))
	}
	return alerts
}

// TodoDetector reports projects whose status could not be determined.
type TodoDetector struct{}

func (TodoDetector) Name() string { return "todo" }

func (TodoDetector) Detect(ctx context.Context, projects []Project) []Alert {
	var alerts []Alert
	for i := range projects {
		p := &projects[i]
		if p.Status != extract.StatusUnknown && p.Status != "" {
			continue
		}
		if !p.HasTodo {
			alerts = append(alerts, p.alert("missing_todo", SeverityInfo, "No TODO.md file",
				"Consider adding TODO.md to track project status"))
			continue
		}
		alerts = append(alerts, p.alert("unknown_status", SeverityInfo, "Status unknown",
			"TODO.md exists but status not detected"))
	}
	return alerts
}

// prefix returns at most n runes of s.
func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func clip(s string, n int) string {
	return prefix(strings.TrimSpace(s), n)
}

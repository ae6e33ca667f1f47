package alert_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/projtrack/internal/alert"
	"github.com/rpggio/projtrack/internal/cronhealth"
	"github.com/rpggio/projtrack/internal/domain/project"
	"github.com/rpggio/projtrack/internal/extract"
	"github.com/rpggio/projtrack/internal/provider"
	"github.com/rpggio/projtrack/internal/sysexec/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func proj(id, name string) alert.Project {
	return alert.Project{Project: project.Project{
		ID:           id,
		Name:         name,
		Path:         "/projects/" + id,
		Status:       extract.StatusActive,
		HasIndex:     true,
		IndexIsValid: true,
		LastModified: time.Now(),
	}}
}

func types(alerts []alert.Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Type)
	}
	return out
}

func TestSort_SeverityThenName(t *testing.T) {
	alerts := []alert.Alert{
		{ProjectName: "B", Severity: alert.SeverityInfo, Type: "i"},
		{ProjectName: "A", Severity: alert.SeverityCritical, Type: "c1"},
		{ProjectName: "C", Severity: alert.SeverityWarning, Type: "w"},
		{ProjectName: "A", Severity: alert.SeverityCritical, Type: "c2"},
	}
	alert.Sort(alerts)

	require.Equal(t, []string{"c1", "c2", "w", "i"}, types(alerts))
	require.Equal(t, "A", alerts[0].ProjectName)
	require.Equal(t, "A", alerts[1].ProjectName)
}

func TestSort_NameIsCaseSensitive(t *testing.T) {
	alerts := []alert.Alert{
		{ProjectName: "alpha", Severity: alert.SeverityWarning},
		{ProjectName: "Zulu", Severity: alert.SeverityWarning},
	}
	alert.Sort(alerts)
	require.Equal(t, "Zulu", alerts[0].ProjectName)
}

func TestBlockedDetector(t *testing.T) {
	blocked := proj("a", "A")
	blocked.HasTodo = true
	blocked.Todo = "# A\n\n## Blockers & Dependencies\n- Waiting on API key from vendor " + strings.Repeat("x", 120) + "\n- second\n"

	none := proj("b", "B")
	none.HasTodo = true
	none.Todo = "# B\n\n## Blockers\n- None\n\n## What's Missing\n- auth\n- billing\n"

	complete := proj("c", "C")
	complete.Status = extract.StatusComplete
	complete.HasTodo = true
	complete.Todo = "# C\n\n### What's Missing\n- polish\n"

	noGaps := proj("d", "D")
	noGaps.HasTodo = true
	noGaps.Todo = "# D\n\n## What's Missing\n- None\n"

	alerts := alert.BlockedDetector{}.Detect(context.Background(), []alert.Project{blocked, none, complete, noGaps})
	require.Len(t, alerts, 2)

	require.Equal(t, "blocked", alerts[0].Type)
	require.Equal(t, alert.SeverityCritical, alerts[0].Severity)
	require.Equal(t, "Project blocked", alerts[0].Message)
	require.Len(t, alerts[0].Details, 100)
	require.True(t, strings.HasPrefix(alerts[0].Details, "Waiting on API key"))

	require.Equal(t, "gaps", alerts[1].Type)
	require.Equal(t, "B", alerts[1].ProjectName)
	require.Equal(t, alert.SeverityInfo, alerts[1].Severity)
	require.Equal(t, "2 items in backlog", alerts[1].Details)
}

func TestReviewDetector(t *testing.T) {
	pending := proj("a", "A")
	pending.Review = &extract.CodeReview{
		Reviewer:      "Opus",
		Verdict:       "Needs refactor",
		Summary:       strings.Repeat("s", 90),
		CompletionPct: 40,
	}
	approved := proj("b", "B")
	approved.Review = &extract.CodeReview{Reviewer: "Opus", Verdict: "Production ready", CompletionPct: 0}
	done := proj("c", "C")
	done.Review = &extract.CodeReview{Reviewer: "Opus", Verdict: "Needs work", CompletionPct: 100}

	alerts := alert.ReviewDetector{}.Detect(context.Background(), []alert.Project{pending, approved, done, proj("d", "D")})
	require.Len(t, alerts, 2)

	require.Equal(t, alert.SeverityWarning, alerts[0].Severity)
	require.Equal(t, "Code review: Needs refactor", alerts[0].Message)
	require.Equal(t, "Reviewer: Opus | "+strings.Repeat("s", 80)+"...", alerts[0].Details)

	require.Equal(t, alert.SeverityInfo, alerts[1].Severity)
	require.Equal(t, "Reviewer: Opus", alerts[1].Details)
}

func TestStalledDetector(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	old := proj("a", "A")
	old.LastModified = now.AddDate(0, 0, -75)
	fresh := proj("b", "B")
	fresh.LastModified = now.AddDate(0, 0, -59)
	unknown := proj("c", "C")
	unknown.LastModified = time.Time{}

	d := alert.StalledDetector{Now: func() time.Time { return now }}
	alerts := d.Detect(context.Background(), []alert.Project{old, fresh, unknown})
	require.Len(t, alerts, 1)
	require.Equal(t, "No work in 75 days", alerts[0].Message)
	require.Equal(t, "Last modified: 2026-02-15", alerts[0].Details)

	d.Days = 30
	alerts = d.Detect(context.Background(), []alert.Project{old, fresh})
	require.Len(t, alerts, 2)
}

func TestIndexDetector(t *testing.T) {
	missing := proj("a", "A")
	missing.HasIndex = false
	invalid := proj("b", "B")
	invalid.IndexIsValid = false

	alerts := alert.IndexDetector{}.Detect(context.Background(), []alert.Project{missing, invalid, proj("c", "C")})
	require.Equal(t, []string{"missing_index", "invalid_index"}, types(alerts))
	require.Equal(t, "Missing project index", alerts[0].Message)
	require.Equal(t, "Incomplete project index", alerts[1].Message)
}

type stubProvider struct {
	provider.Local
	results map[string]provider.CheckResult
	errs    map[string]error
}

func (s *stubProvider) CheckFile(ctx context.Context, path string) (provider.CheckResult, error) {
	if err := s.errs[path]; err != nil {
		return provider.CheckResult{}, err
	}
	return s.results[path], nil
}

func TestFrontmatterDetector(t *testing.T) {
	withIssue := proj("a", "A")
	withIssue.IndexPath = "/a/00_Index_A.md"
	bare := proj("b", "B")
	bare.IndexPath = "/b/00_Index_B.md"
	broken := proj("c", "C")
	broken.IndexPath = "/c/00_Index_C.md"
	ok := proj("d", "D")
	ok.IndexPath = "/d/00_Index_D.md"

	stub := &stubProvider{
		results: map[string]provider.CheckResult{
			withIssue.IndexPath: {Valid: false, Issues: []string{"tags must be a list", "second"}},
			bare.IndexPath:      {Valid: false},
			ok.IndexPath:        {Valid: true},
		},
		errs: map[string]error{broken.IndexPath: errors.New("boom")},
	}

	d := &alert.FrontmatterDetector{Provider: stub}
	alerts := d.Detect(context.Background(), []alert.Project{withIssue, bare, broken, ok, proj("e", "E")})
	require.Len(t, alerts, 2)
	require.Equal(t, "tags must be a list", alerts[0].Details)
	require.Equal(t, "Invalid YAML frontmatter structure", alerts[1].Details)
}

func TestTodoDetector(t *testing.T) {
	missing := proj("a", "A")
	missing.Status = extract.StatusUnknown
	undetected := proj("b", "B")
	undetected.Status = extract.StatusUnknown
	undetected.HasTodo = true

	alerts := alert.TodoDetector{}.Detect(context.Background(), []alert.Project{missing, undetected, proj("c", "C")})
	require.Equal(t, []string{"missing_todo", "unknown_status"}, types(alerts))
	require.Equal(t, "No TODO.md file", alerts[0].Message)
	require.Equal(t, "Status unknown", alerts[1].Message)
}

func TestCronDetector(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs", "cron.log"),
		[]byte("2026-01-01 09:00:00 start\nTraceback: boom\n"), 0o644))

	runner := &mocks.Runner{}
	runner.On("Run", mock.Anything, mocks.Named("crontab", "-l")).Return([]byte("0 9 * * * /srv/job/run.sh\n"), nil).Once()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.Local)
	checker := cronhealth.NewChecker(runner, cronhealth.DefaultConfig(), nil).WithClock(func() time.Time { return now })

	withJobs := proj("a", "A")
	withJobs.Path = dir
	withJobs.CronJobs = []project.CronJob{
		{Schedule: "@daily", Command: "./run.sh", Description: "nightly digest"},
		{Schedule: "bogus", Command: "./other.sh"},
		{Schedule: "@daily", Command: "./absent.sh"},
	}

	d := &alert.CronDetector{Checker: checker}
	alerts := d.Detect(context.Background(), []alert.Project{proj("b", "B"), withJobs})

	require.Equal(t, []string{"cron_execution_error", "cron_invalid_schedule", "cron_not_installed"}, types(alerts))
	require.Equal(t, alert.SeverityCritical, alerts[0].Severity)
	require.Equal(t, "nightly digest", alerts[0].Details)
	require.Equal(t, alert.SeverityWarning, alerts[1].Severity)
	require.Equal(t, "./other.sh", alerts[1].Details)
	runner.AssertNumberOfCalls(t, "Run", 1)
}

func TestCronDetector_NoJobsSkipsCrontab(t *testing.T) {
	runner := &mocks.Runner{}
	checker := cronhealth.NewChecker(runner, cronhealth.DefaultConfig(), nil)

	alerts := (&alert.CronDetector{Checker: checker}).Detect(context.Background(), []alert.Project{proj("a", "A")})
	assert.Empty(t, alerts)
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestCronSeverity(t *testing.T) {
	assert.Equal(t, alert.SeverityCritical, alert.CronSeverity(cronhealth.IssueMissedRun))
	assert.Equal(t, alert.SeverityCritical, alert.CronSeverity(cronhealth.IssueExecutionError))
	assert.Equal(t, alert.SeverityWarning, alert.CronSeverity(cronhealth.IssueNotInstalled))
	assert.Equal(t, alert.SeverityWarning, alert.CronSeverity(cronhealth.IssueInvalidSchedule))
}

func TestAggregator_RunsBatteryAndSorts(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	b := proj("b", "Beta")
	b.HasTodo = true
	b.Todo = "# Beta\n\n## Blockers\n- vendor outage\n"

	a := proj("a", "Alpha")
	a.HasIndex = false
	a.Status = extract.StatusUnknown
	a.LastModified = now.AddDate(0, -4, 0)

	agg := alert.NewAggregator(nil, alert.DefaultDetectors(alert.Config{Now: func() time.Time { return now }}, nil, nil, nil)...)
	alerts := agg.Run(context.Background(), []alert.Project{b, a})

	require.Equal(t, []string{"blocked", "stalled", "missing_index", "missing_todo"}, types(alerts))
	require.Equal(t, "Beta", alerts[0].ProjectName)
	require.Equal(t, "Alpha", alerts[1].ProjectName)
}

// fragileDetector panics on one project and reports every other one.
type fragileDetector struct {
	breaksOn string
}

func (fragileDetector) Name() string { return "fragile" }

func (d fragileDetector) Detect(ctx context.Context, projects []alert.Project) []alert.Alert {
	var out []alert.Alert
	for _, p := range projects {
		if p.ID == d.breaksOn {
			panic("unreadable document")
		}
		out = append(out, alert.Alert{ProjectID: p.ID, ProjectName: p.Name, Type: "fragile", Severity: alert.SeverityInfo})
	}
	return out
}

func TestAggregator_DetectorPanicOnlyDropsThatProject(t *testing.T) {
	projects := []alert.Project{proj("a", "Alpha"), proj("b", "Beta"), proj("c", "Gamma")}
	for i := range projects {
		projects[i].HasIndex = false
	}

	agg := alert.NewAggregator(nil, fragileDetector{breaksOn: "b"}, alert.IndexDetector{})
	var alerts []alert.Alert
	require.NotPanics(t, func() {
		alerts = agg.Run(context.Background(), projects)
	})

	var got []string
	for _, a := range alerts {
		got = append(got, a.ProjectID+":"+a.Type)
	}
	assert.ElementsMatch(t, []string{
		"a:fragile", "c:fragile",
		"a:missing_index", "b:missing_index", "c:missing_index",
	}, got)
}

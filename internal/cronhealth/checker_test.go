package cronhealth_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/projtrack/internal/cronhealth"
	"github.com/rpggio/projtrack/internal/extract"
	"github.com/rpggio/projtrack/internal/sysexec/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const installedCrontab = `# m h dom mon dow command
0 9 * * * /home/me/projects/digest/run.sh >> /tmp/digest.log 2>&1
@hourly cd /srv/sync && ./sync.sh
`

func newChecker(t *testing.T, crontab string, now time.Time) (*cronhealth.Checker, *mocks.Runner) {
	t.Helper()
	runner := &mocks.Runner{}
	runner.On("Run", mock.Anything, mocks.Named("crontab", "-l")).Return([]byte(crontab), nil)
	checker := cronhealth.NewChecker(runner, cronhealth.DefaultConfig(), nil).
		WithClock(func() time.Time { return now })
	return checker, runner
}

func writeLog(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func local(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.Local)
}

func requireSameTime(t *testing.T, want, got time.Time) {
	t.Helper()
	require.True(t, want.Equal(got), "want %s, got %s", want, got)
}

func TestValidSchedule(t *testing.T) {
	require.False(t, cronhealth.ValidSchedule("*/5 * * * * *"))
	require.True(t, cronhealth.ValidSchedule("@daily"))
	require.True(t, cronhealth.ValidSchedule("0 9 * * *"))
	require.True(t, cronhealth.ValidSchedule("@reboot"))
	require.True(t, cronhealth.ValidSchedule("*/15 2-4 * * 1-5"))
	require.False(t, cronhealth.ValidSchedule("@every 5m"))
	require.False(t, cronhealth.ValidSchedule("not a schedule"))
	require.False(t, cronhealth.ValidSchedule("61 * * * *"))

	require.True(t, cronhealth.ValidSchedule("0 9 * * 7"))
	require.True(t, cronhealth.ValidSchedule("0 9 * * 1-7"))
	require.True(t, cronhealth.ValidSchedule("0 9 * * 5,7"))
	require.False(t, cronhealth.ValidSchedule("CRON_TZ=UTC 0 9 * * *"))
	require.False(t, cronhealth.ValidSchedule("TZ=UTC 0 9 * * *"))
	require.False(t, cronhealth.ValidSchedule("0 9 * *"))
}

func TestExpectedNextRun(t *testing.T) {
	last := local(2025, time.January, 1, 10, 0)

	next, ok := cronhealth.ExpectedNextRun("@daily", last)
	require.True(t, ok)
	requireSameTime(t, last.Add(24*time.Hour), next)

	next, ok = cronhealth.ExpectedNextRun("@weekly", last)
	require.True(t, ok)
	requireSameTime(t, last.Add(7*24*time.Hour), next)

	next, ok = cronhealth.ExpectedNextRun("0 9 * * *", last)
	require.True(t, ok)
	requireSameTime(t, local(2025, time.January, 2, 9, 0), next)

	_, ok = cronhealth.ExpectedNextRun("@reboot", last)
	require.False(t, ok)

	// 2025-01-01 is a Wednesday; 7 means Sunday.
	next, ok = cronhealth.ExpectedNextRun("0 9 * * 7", last)
	require.True(t, ok)
	requireSameTime(t, local(2025, time.January, 5, 9, 0), next)

	next, ok = cronhealth.ExpectedNextRun("0 9 * * 6-7", last)
	require.True(t, ok)
	requireSameTime(t, local(2025, time.January, 4, 9, 0), next)

	_, ok = cronhealth.ExpectedNextRun("CRON_TZ=UTC 0 9 * * *", last)
	require.False(t, ok)
}

func TestCrontab_Installed(t *testing.T) {
	checker, _ := newChecker(t, installedCrontab, time.Now())
	crontab := checker.LoadCrontab(context.Background())
	require.Len(t, crontab, 2)

	require.True(t, crontab.Installed("/home/me/projects/digest/run.sh"))
	require.True(t, crontab.Installed("./run.sh"))
	require.True(t, crontab.Installed("./sync.sh"))
	require.False(t, crontab.Installed("./other.sh"))
}

func TestLoadCrontab_FailureIsEmpty(t *testing.T) {
	runner := &mocks.Runner{}
	runner.On("Run", mock.Anything, mocks.Named("crontab", "-l")).Return(nil, errors.New("no crontab for user"))
	checker := cronhealth.NewChecker(runner, cronhealth.Config{}, nil)

	issues := checker.Check(context.Background(), t.TempDir(), []extract.CronJob{{Schedule: "@daily", Command: "./run.sh"}})
	require.Len(t, issues, 1)
	require.Equal(t, cronhealth.IssueNotInstalled, issues[0].Type)
	runner.AssertExpectations(t)
}

func TestCheck_InvalidScheduleStops(t *testing.T) {
	checker, _ := newChecker(t, installedCrontab, time.Now())

	issues := checker.Check(context.Background(), t.TempDir(), []extract.CronJob{
		{Schedule: "*/5 * * * * *", Command: "./run.sh", Description: "digest"},
	})
	require.Len(t, issues, 1)
	require.Equal(t, cronhealth.IssueInvalidSchedule, issues[0].Type)
	require.Equal(t, "Invalid cron schedule: */5 * * * * *", issues[0].Message)
	require.Equal(t, "digest", issues[0].Description)
}

func TestCheck_NoLogIsHealthy(t *testing.T) {
	checker, _ := newChecker(t, installedCrontab, time.Now())

	issues := checker.Check(context.Background(), t.TempDir(), []extract.CronJob{{Schedule: "@daily", Command: "./run.sh"}})
	require.Empty(t, issues)
}

func TestCheck_MissedRun(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "logs/cron.log", "2025-01-01 09:00:00 started\n2025-01-01 09:00:05 done ok\n")
	checker, _ := newChecker(t, installedCrontab, local(2025, time.January, 3, 10, 0))

	issues := checker.Check(context.Background(), dir, []extract.CronJob{{Schedule: "@daily", Command: "./run.sh"}})
	require.Len(t, issues, 1)
	issue := issues[0]
	require.Equal(t, cronhealth.IssueMissedRun, issue.Type)
	require.Equal(t, "Job hasn't run since 2 days ago (expected: @daily)", issue.Message)
	require.NotNil(t, issue.LastRun)
	require.NotNil(t, issue.ExpectedRun)
	requireSameTime(t, issue.LastRun.Add(24*time.Hour), *issue.ExpectedRun)
}

func TestCheck_WithinGrace(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "logs/cron.log", "2025-01-01 09:00:00 done\n")
	checker, _ := newChecker(t, installedCrontab, local(2025, time.January, 2, 9, 30))

	issues := checker.Check(context.Background(), dir, []extract.CronJob{{Schedule: "@daily", Command: "./run.sh"}})
	require.Empty(t, issues)
}

func TestCheck_ExecutionError(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "run.log", "2025-01-01 09:00:00 start\nTraceback (most recent call last):\nValueError: bad\n")
	checker, _ := newChecker(t, installedCrontab, local(2025, time.January, 1, 12, 0))

	issues := checker.Check(context.Background(), dir, []extract.CronJob{{Schedule: "@daily", Command: "./run.sh"}})
	require.Len(t, issues, 1)
	require.Equal(t, cronhealth.IssueExecutionError, issues[0].Type)
	require.Equal(t, "Last execution failed (3 hours ago)", issues[0].Message)
}

func TestCheck_MissedAndFailed(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "cron.log", "2025-01-01 09:00:00 FATAL: disk full\n")
	checker, _ := newChecker(t, installedCrontab, local(2025, time.January, 1, 12, 0))

	issues := checker.Check(context.Background(), dir, []extract.CronJob{{Schedule: "@hourly", Command: "./sync.sh"}})
	require.Len(t, issues, 2)
	require.Equal(t, cronhealth.IssueMissedRun, issues[0].Type)
	require.Equal(t, cronhealth.IssueExecutionError, issues[1].Type)
}

func TestAnalyzeLog(t *testing.T) {
	dir := t.TempDir()

	path := writeLog(t, dir, "a.log", "ERROR old failure\n2025-01-01 09:00:00 ok\n")
	res, err := cronhealth.AnalyzeLog(path, 100, time.Local)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.False(t, res.Failed)
	requireSameTime(t, local(2025, time.January, 1, 9, 0), res.LastRun)

	path = writeLog(t, dir, "b.log", "Wed Jan  1 09:00:00 2025 job ran\n")
	res, err = cronhealth.AnalyzeLog(path, 100, time.Local)
	require.NoError(t, err)
	require.True(t, res.Found)
	requireSameTime(t, local(2025, time.January, 1, 9, 0), res.LastRun)

	path = writeLog(t, dir, "c.log", "no timestamps\nerror everywhere\n")
	res, err = cronhealth.AnalyzeLog(path, 100, time.Local)
	require.NoError(t, err)
	require.False(t, res.Found)
	require.False(t, res.Failed)
}

func TestAnalyzeLog_OnlyTail(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("2025-01-01 09:00:00 ancient run\n")
	for i := 0; i < 150; i++ {
		b.WriteString("progress line\n")
	}
	path := writeLog(t, dir, "big.log", b.String())

	res, err := cronhealth.AnalyzeLog(path, 100, time.Local)
	require.NoError(t, err)
	require.False(t, res.Found)
}

func TestReadTail(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	for i := 0; i < 2000; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	path := writeLog(t, dir, "x.log", b.String())

	lines, err := cronhealth.ReadTail(path, 100)
	require.NoError(t, err)
	require.Len(t, lines, 100)
	require.Equal(t, "line 1900", lines[0])
	require.Equal(t, "line 1999", lines[99])

	short := writeLog(t, dir, "short.log", "one\ntwo")
	lines, err = cronhealth.ReadTail(short, 100)
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two"}, lines)
}

func TestFindLogFile(t *testing.T) {
	dir := t.TempDir()
	_, ok := cronhealth.FindLogFile(dir)
	require.False(t, ok)

	old := writeLog(t, dir, "logs/a.log", "a")
	newer := writeLog(t, dir, "logs/b.log", "b")
	require.NoError(t, os.Chtimes(old, time.Now().Add(-time.Hour), time.Now().Add(-time.Hour)))
	writeLog(t, dir, "root.log", "r")

	found, ok := cronhealth.FindLogFile(dir)
	require.True(t, ok)
	require.Equal(t, newer, found)

	preferred := writeLog(t, dir, "logs/cron.log", "c")
	require.NoError(t, os.Chtimes(preferred, time.Now().Add(-48*time.Hour), time.Now().Add(-48*time.Hour)))
	found, ok = cronhealth.FindLogFile(dir)
	require.True(t, ok)
	require.Equal(t, preferred, found)
}

func TestFormatAgo(t *testing.T) {
	now := local(2025, time.March, 10, 12, 0)
	require.Equal(t, "1 day ago", cronhealth.FormatAgo(now, now.Add(-25*time.Hour)))
	require.Equal(t, "2 hours ago", cronhealth.FormatAgo(now, now.Add(-2*time.Hour)))
	require.Equal(t, "5 minutes ago", cronhealth.FormatAgo(now, now.Add(-5*time.Minute)))
	require.Equal(t, "just now", cronhealth.FormatAgo(now, now.Add(-10*time.Second)))
}

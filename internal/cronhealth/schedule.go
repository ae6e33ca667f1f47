package cronhealth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// nicknameIntervals maps the schedule nicknames to the gap between runs.
// @reboot is valid but has no interval.
var nicknameIntervals = map[string]time.Duration{
	"@yearly":   365 * 24 * time.Hour,
	"@annually": 365 * 24 * time.Hour,
	"@monthly":  30 * 24 * time.Hour,
	"@weekly":   7 * 24 * time.Hour,
	"@daily":    24 * time.Hour,
	"@midnight": 24 * time.Hour,
	"@hourly":   time.Hour,
	"@reboot":   0,
}

var standardParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// parseStandard parses a plain five-field expression. A TZ prefix is
// rejected and a day-of-week of 7 is read as Sunday.
func parseStandard(schedule string) (cron.Schedule, error) {
	fields := strings.Fields(schedule)
	if len(fields) != 5 {
		return nil, fmt.Errorf("expected 5 fields, found %d: %q", len(fields), schedule)
	}
	fields[4] = sundayAsZero(fields[4])
	return standardParser.Parse(strings.Join(fields, " "))
}

// sundayAsZero rewrites the day-of-week value 7 to 0. A range ending in 7
// becomes a range ending in 6 plus 0 when the step lands on 7.
func sundayAsZero(dow string) string {
	parts := strings.Split(dow, ",")
	out := make([]string, 0, len(parts)+1)
	for _, part := range parts {
		base, step, hasStep := strings.Cut(part, "/")
		if base == "7" {
			out = append(out, "0"+suffix(step, hasStep))
			continue
		}
		start, end, isRange := strings.Cut(base, "-")
		from, err := strconv.Atoi(start)
		if !isRange || end != "7" || err != nil || from > 6 {
			out = append(out, part)
			continue
		}
		n := 1
		if hasStep {
			if n, err = strconv.Atoi(step); err != nil || n <= 0 {
				out = append(out, part)
				continue
			}
		}
		out = append(out, start+"-6"+suffix(step, hasStep))
		if (7-from)%n == 0 {
			out = append(out, "0")
		}
	}
	return strings.Join(out, ",")
}

func suffix(step string, hasStep bool) string {
	if !hasStep {
		return ""
	}
	return "/" + step
}

// ValidSchedule reports whether schedule is a known nickname or a five-field
// cron expression.
func ValidSchedule(schedule string) bool {
	schedule = strings.TrimSpace(schedule)
	if strings.HasPrefix(schedule, "@") {
		_, ok := nicknameIntervals[schedule]
		return ok
	}
	_, err := parseStandard(schedule)
	return err == nil
}

// ExpectedNextRun returns when a job on schedule should run next after
// lastRun. ok is false for @reboot and for schedules that never fire.
func ExpectedNextRun(schedule string, lastRun time.Time) (time.Time, bool) {
	schedule = strings.TrimSpace(schedule)
	if strings.HasPrefix(schedule, "@") {
		interval, found := nicknameIntervals[schedule]
		if !found || interval == 0 {
			return time.Time{}, false
		}
		return lastRun.Add(interval), true
	}

	sched, err := parseStandard(schedule)
	if err != nil {
		return time.Time{}, false
	}
	next := sched.Next(lastRun)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

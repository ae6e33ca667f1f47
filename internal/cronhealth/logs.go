package cronhealth

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	tailChunkSize = 4096
	maxTailBytes  = 1 << 20
)

// logGlobs are tried in order; the first pattern with any match wins.
var logGlobs = []string{"logs/cron.log", "logs/*.log", "cron.log", "*.log"}

var (
	isoTimestamp    = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}`)
	syslogTimestamp = regexp.MustCompile(`\w{3} \w{3} +\d{1,2} \d{2}:\d{2}:\d{2} \d{4}`)
	errorIndicator  = regexp.MustCompile(`(?i)error|failed|exception|traceback|fatal`)
)

// LogResult is what a log tail says about the most recent run.
type LogResult struct {
	LastRun time.Time
	Failed  bool
	Found   bool
}

// FindLogFile returns the most recently modified log of the first matching
// pattern under projectPath.
func FindLogFile(projectPath string) (string, bool) {
	for _, pattern := range logGlobs {
		matches, err := filepath.Glob(filepath.Join(projectPath, pattern))
		if err != nil || len(matches) == 0 {
			continue
		}

		var newest string
		var newestMod time.Time
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			if newest == "" || info.ModTime().After(newestMod) {
				newest, newestMod = m, info.ModTime()
			}
		}
		if newest != "" {
			return newest, true
		}
	}
	return "", false
}

// AnalyzeLog scans the last maxLines lines of a log from the end for the
// newest recognizable timestamp. An error indicator on that line or any line
// after it marks the run as failed.
func AnalyzeLog(path string, maxLines int, loc *time.Location) (LogResult, error) {
	lines, err := ReadTail(path, maxLines)
	if err != nil {
		return LogResult{}, err
	}

	var res LogResult
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if errorIndicator.MatchString(line) {
			res.Failed = true
		}
		if ts, ok := parseTimestamp(line, loc); ok {
			res.LastRun = ts
			res.Found = true
			break
		}
	}
	if !res.Found {
		res.Failed = false
	}
	return res, nil
}

func parseTimestamp(line string, loc *time.Location) (time.Time, bool) {
	if m := isoTimestamp.FindString(line); m != "" {
		if t, err := time.ParseInLocation("2006-01-02T15:04:05", strings.Replace(m, " ", "T", 1), loc); err == nil {
			return t, true
		}
	}
	if m := syslogTimestamp.FindString(line); m != "" {
		if t, err := time.ParseInLocation("Mon Jan 2 15:04:05 2006", strings.Join(strings.Fields(m), " "), loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ReadTail returns up to the last n lines of a file, reading backwards in
// chunks and never more than maxTailBytes.
func ReadTail(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}

	size := info.Size()
	var buf []byte
	offset := size
	for offset > 0 && int64(len(buf)) < maxTailBytes && bytes.Count(buf, []byte("\n")) <= n {
		chunk := int64(tailChunkSize)
		if chunk > offset {
			chunk = offset
		}
		offset -= chunk
		part := make([]byte, chunk)
		if _, err := f.ReadAt(part, offset); err != nil && err != io.EOF {
			return nil, fmt.Errorf("read log: %w", err)
		}
		buf = append(part, buf...)
	}

	text := strings.TrimRight(strings.ReplaceAll(string(buf), "\r\n", "\n"), "\n")
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	if offset > 0 && len(lines) > 0 {
		// first line may be partial
		lines = lines[1:]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

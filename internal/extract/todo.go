// Package extract pulls structured project metadata out of loosely formatted
// markdown documents. Every extractor is total: input that does not follow
// the documented conventions yields neutral defaults, never an error.
package extract

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Status is the lifecycle state declared in a TODO document header.
type Status string

const (
	StatusUnknown     Status = "unknown"
	StatusActive      Status = "active"
	StatusDevelopment Status = "development"
	StatusPaused      Status = "paused"
	StatusStalled     Status = "stalled"
	StatusComplete    Status = "complete"
)

const (
	headerLines       = 30
	maxDescriptionLen = 200
)

// statusKeywords is checked in order; the first keyword found in the
// normalized status line decides the classification.
var statusKeywords = []struct {
	keyword string
	status  Status
}{
	{"active", StatusActive},
	{"development", StatusDevelopment},
	{"dev", StatusDevelopment},
	{"paused", StatusPaused},
	{"stalled", StatusStalled},
	{"complete", StatusComplete},
	{"done", StatusComplete},
	{"shipped", StatusComplete},
	{"production ready", StatusComplete},
}

var (
	statusSymbols = regexp.MustCompile(`[^\p{L}\p{N}_\s&]`)
	phaseSplit    = regexp.MustCompile(`(?i)phase:`)
	infraMarker   = regexp.MustCompile(`\*\*Type:\*\*\s*Infra(?:structure)?\b`)
)

// Agent is one entry of a declared AI agent roster.
type Agent struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// CronJob is one declared scheduled task.
type CronJob struct {
	Schedule    string `json:"schedule"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
}

// TodoData is everything extracted from a TODO document.
type TodoData struct {
	Status           Status
	Phase            string
	Description      string
	CompletionPct    int
	Agents           []Agent
	CronJobs         []CronJob
	IsInfrastructure bool
}

// ParseTodo runs every TODO extractor over content.
func ParseTodo(content string) TodoData {
	status, phase := HeaderFields(content)
	return TodoData{
		Status:           status,
		Phase:            phase,
		Description:      ExtractDescription(content),
		CompletionPct:    CalculateCompletion(content),
		Agents:           ExtractAgents(content),
		CronJobs:         ExtractCronJobs(content),
		IsInfrastructure: IsInfrastructure(content),
	}
}

// HeaderFields reads the status and phase declarations from the header
// region of a document. The first declaration of each wins.
func HeaderFields(content string) (Status, string) {
	status := StatusUnknown
	var phase string
	statusSeen := false

	lines := splitLines(content)
	if len(lines) > headerLines {
		lines = lines[:headerLines]
	}
	for _, line := range lines {
		switch {
		case strings.Contains(line, "Project Status:"):
			if !statusSeen {
				status = ExtractStatus(line)
				statusSeen = true
			}
		case phase == "" && phaseSplit.MatchString(line):
			phase = ExtractPhase(line)
		}
	}
	return status, phase
}

// ExtractStatus classifies a single status line.
func ExtractStatus(line string) Status {
	line = strings.ReplaceAll(line, "*", "")
	line = statusSymbols.ReplaceAllString(line, "")
	line = strings.ToLower(line)

	for _, kw := range statusKeywords {
		if strings.Contains(line, kw.keyword) {
			return kw.status
		}
	}
	return StatusUnknown
}

// ExtractPhase returns the text following "Phase:" on line, cut at the next
// heading marker. It returns "" when there is none.
func ExtractPhase(line string) string {
	line = strings.ReplaceAll(line, "*", "")
	parts := phaseSplit.Split(line, 2)
	if len(parts) < 2 {
		return ""
	}
	phase, _, _ := strings.Cut(parts[1], "##")
	phase, _, _ = strings.Cut(phase, "\n")
	return strings.TrimSpace(phase)
}

// CalculateCompletion returns the rounded share of checked boxes. A document
// without checkboxes yields 0.
func CalculateCompletion(content string) int {
	checked := strings.Count(content, "- [x]")
	unchecked := strings.Count(content, "- [ ]")
	return percent(checked, checked+unchecked)
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// ExtractDescription returns the first paragraph of prose after the title
// heading, skipping badges and bold metadata lines.
func ExtractDescription(content string) string {
	lines := splitLines(content)
	if end := frontmatterEnd(lines); end > 0 {
		lines = lines[end+1:]
	}

	start := 0
	for i, line := range lines {
		if strings.HasPrefix(line, "#") {
			start = i + 1
			break
		}
	}

	var collected []string
	for _, raw := range lines[start:] {
		line := strings.TrimSpace(raw)
		if line == "" {
			if len(collected) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "---") {
			if len(collected) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(line, "**") || strings.HasPrefix(line, "[!") || strings.HasPrefix(line, "![") {
			continue
		}
		collected = append(collected, line)
	}

	return truncate(strings.Join(collected, " "), maxDescriptionLen)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}

// ExtractAgents reads the top-level bullets of every "AI Agents" section.
func ExtractAgents(content string) []Agent {
	var agents []Agent
	for _, section := range FindSections(content, 2, 3, "ai agents") {
		for _, line := range section.Lines {
			if !strings.HasPrefix(line, "- ") {
				continue
			}
			item := strings.TrimSpace(line[2:])
			name, role, _ := strings.Cut(item, ":")
			name = strings.TrimSpace(strings.ReplaceAll(name, "**", ""))
			role = strings.TrimSpace(strings.ReplaceAll(role, "**", ""))
			if name == "" {
				continue
			}
			agents = append(agents, Agent{Name: name, Role: role})
		}
	}
	return agents
}

// ExtractCronJobs yields at most one job per "Cron Job" section. Multiple
// jobs described under the same heading are not separated; the first value
// of each field wins.
func ExtractCronJobs(content string) []CronJob {
	var jobs []CronJob
	for _, section := range FindSections(content, 2, 3, "cron job") {
		var job CronJob
		for _, line := range section.Lines {
			switch {
			case strings.Contains(line, "Schedule:"):
				if job.Schedule == "" {
					value := cleanField(after(line, "Schedule:"))
					value, _, _ = strings.Cut(value, "(")
					job.Schedule = strings.TrimSpace(value)
				}
			case strings.Contains(line, "Command:"):
				if job.Command == "" {
					job.Command = cleanField(after(line, "Command:"))
				}
			case strings.Contains(line, "Purpose:"):
				if job.Description == "" {
					job.Description = cleanField(after(line, "Purpose:"))
				}
			case strings.Contains(line, "Description:"):
				if job.Description == "" {
					job.Description = cleanField(after(line, "Description:"))
				}
			}
		}
		if job.Schedule != "" && job.Command != "" {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

func after(line, marker string) string {
	_, rest, _ := strings.Cut(line, marker)
	return rest
}

func cleanField(s string) string {
	s = strings.ReplaceAll(s, "`", "")
	s = strings.ReplaceAll(s, "**", "")
	return strings.TrimSpace(s)
}

// IsInfrastructure reports whether content carries an explicit
// "**Type:** Infrastructure" or "**Type:** Infra" declaration.
func IsInfrastructure(content string) bool {
	return infraMarker.MatchString(content)
}

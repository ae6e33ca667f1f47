package extract

import (
	"regexp"
	"strings"
)

var taskLine = regexp.MustCompile(`^\s*- \[([ x])\]\s*(.*)$`)

// Task is a checkbox item in a document.
type Task struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
	Line int    `json:"line"`
}

// ExtractTasks lists the checkbox items of content with 1-based line numbers.
func ExtractTasks(content string) []Task {
	var tasks []Task
	for i, line := range splitLines(content) {
		m := taskLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		tasks = append(tasks, Task{
			Text: strings.TrimSpace(m[2]),
			Done: m[1] == "x",
			Line: i + 1,
		})
	}
	return tasks
}

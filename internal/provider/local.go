package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rpggio/projtrack/internal/domain/project"
	"github.com/rpggio/projtrack/internal/extract"
	"gopkg.in/yaml.v3"
)

const todoFile = "TODO.md"

// Local answers from the project documents alone. It has no health score
// and cannot fix files.
type Local struct {
	logger *slog.Logger
}

// NewLocal creates the heuristic provider.
func NewLocal(logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Local{logger: logger}
}

func (l *Local) Name() string { return "local" }

// Health always reports ErrUnavailable.
func (l *Local) Health(ctx context.Context, projectPath string) (project.Health, error) {
	return project.Health{}, ErrUnavailable
}

// Tasks returns the checkbox items of the project's TODO document.
func (l *Local) Tasks(ctx context.Context, projectPath string) ([]Task, error) {
	if projectPath == "" {
		return nil, fmt.Errorf("%w: project path required", ErrUnavailable)
	}
	path := filepath.Join(projectPath, todoFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Task{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	items := extract.ExtractTasks(string(data))
	tasks := make([]Task, 0, len(items))
	for _, it := range items {
		tasks = append(tasks, Task{Text: it.Text, Done: it.Done, File: path, Line: it.Line})
	}
	return tasks, nil
}

// CheckFile verifies the frontmatter block: delimiters present, YAML
// parseable, and a non-empty tags list.
func (l *Local) CheckFile(ctx context.Context, filePath string) (CheckResult, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return CheckResult{}, fmt.Errorf("reading %s: %w", filePath, err)
	}

	var issues []string
	front, _, ok := extract.SplitFrontmatter(string(data))
	switch {
	case !ok:
		issues = append(issues, "missing frontmatter delimiters")
	default:
		var fields map[string]any
		if err := yaml.Unmarshal([]byte(front), &fields); err != nil {
			issues = append(issues, fmt.Sprintf("invalid YAML: %v", err))
		} else if !hasTags(fields["tags"]) {
			issues = append(issues, "frontmatter has no tags")
		}
	}

	if len(issues) > 0 {
		l.logger.Debug("frontmatter check failed", "file", filePath, "issues", issues)
	}
	return CheckResult{Valid: len(issues) == 0, Issues: issues}, nil
}

func hasTags(v any) bool {
	switch tags := v.(type) {
	case []any:
		return len(tags) > 0
	case string:
		return strings.TrimSpace(tags) != ""
	default:
		return false
	}
}

// FixFile is not supported.
func (l *Local) FixFile(ctx context.Context, filePath string) bool {
	return false
}

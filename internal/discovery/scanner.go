// Package discovery finds project directories under a root and derives a
// project record for each from its documents and modification history.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rpggio/projtrack/internal/domain/project"
	"github.com/rpggio/projtrack/internal/extract"
	"github.com/rpggio/projtrack/internal/sysexec"
)

// Well-known project documents.
const (
	TodoFile   = "TODO.md"
	ReadmeFile = "README.md"
	ReviewFile = "CODE_REVIEW.md"
	indexGlob  = "00_Index_*.md"
)

// deniedDirs are never descended into and never treated as projects.
var deniedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	"venv":         true,
}

// Config controls a discovery pass.
type Config struct {
	Root             string
	GitTimeout       time.Duration
	SourceExtensions []string
}

// DefaultConfig returns the standard discovery settings for root.
func DefaultConfig(root string) Config {
	return Config{
		Root:             root,
		GitTimeout:       5 * time.Second,
		SourceExtensions: []string{".py", ".js", ".ts", ".go"},
	}
}

// Scanner discovers projects on disk.
type Scanner struct {
	runner sysexec.Runner
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewScanner creates a scanner. Git is invoked through runner.
func NewScanner(runner sysexec.Runner, cfg Config, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.GitTimeout <= 0 {
		cfg.GitTimeout = 5 * time.Second
	}
	if len(cfg.SourceExtensions) == 0 {
		cfg.SourceExtensions = DefaultConfig("").SourceExtensions
	}
	return &Scanner{runner: runner, cfg: cfg, logger: logger, now: time.Now}
}

// WithClock replaces the clock used when no activity timestamp is found.
func (s *Scanner) WithClock(now func() time.Time) *Scanner {
	s.now = now
	return s
}

// Root returns the configured projects directory.
func (s *Scanner) Root() string {
	return s.cfg.Root
}

// Scan returns a record for every project directory directly under the
// root, ordered by directory name. A missing root yields no projects.
func (s *Scanner) Scan(ctx context.Context) ([]project.Project, error) {
	entries, err := os.ReadDir(s.cfg.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("projects root does not exist", "root", s.cfg.Root)
			return nil, nil
		}
		return nil, fmt.Errorf("reading projects root: %w", err)
	}

	var projects []project.Project
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() || Excluded(entry.Name()) {
			continue
		}
		dir := filepath.Join(s.cfg.Root, entry.Name())
		if !s.IsProjectDir(dir) {
			continue
		}
		projects = append(projects, s.ScanProject(ctx, dir))
	}

	s.logger.Info("discovery complete", "root", s.cfg.Root, "projects", len(projects))
	return projects, nil
}

// Excluded reports whether a top-level directory name is skipped outright.
func Excluded(name string) bool {
	return deniedDirs[name] || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// IsProjectDir reports whether dir looks like a project: it has a git
// checkout, a README or TODO, or at least one source file.
func (s *Scanner) IsProjectDir(dir string) bool {
	for _, marker := range []string{".git", ReadmeFile, TodoFile} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return s.hasSourceFile(dir)
}

func (s *Scanner) hasSourceFile(dir string) bool {
	found := false
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && Excluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(d.Name())
		for _, want := range s.cfg.SourceExtensions {
			if ext == want {
				found = true
				return fs.SkipAll
			}
		}
		return nil
	})
	return found
}

// ScanProject derives the record for one project directory. Unreadable
// documents leave the corresponding fields at their defaults.
func (s *Scanner) ScanProject(ctx context.Context, dir string) project.Project {
	name := filepath.Base(dir)
	proj := project.Project{
		ID:       extract.Slug(name),
		Name:     name,
		Path:     dir,
		Status:   extract.StatusUnknown,
		AIAgents: []project.Agent{},
		CronJobs: []project.CronJob{},
	}
	proj.LastModified = s.ActivityTime(ctx, dir)

	todo, hasTodo := s.readDoc(filepath.Join(dir, TodoFile))
	if hasTodo {
		data := extract.ParseTodo(todo)
		proj.Status = data.Status
		proj.Phase = data.Phase
		proj.Description = data.Description
		proj.CompletionPct = data.CompletionPct
		proj.AIAgents = project.AgentsFrom(data.Agents)
		proj.CronJobs = project.CronJobsFrom(data.CronJobs)
		proj.IsInfrastructure = data.IsInfrastructure
	}

	readme, hasReadme := s.readDoc(filepath.Join(dir, ReadmeFile))
	if hasReadme {
		if proj.Description == "" {
			proj.Description = extract.ExtractDescription(readme)
		}
		proj.IsInfrastructure = proj.IsInfrastructure || extract.IsInfrastructure(readme)
	}

	if indexPath, ok := FindIndex(dir); ok {
		proj.HasIndex = true
		if info, err := os.Stat(indexPath); err == nil {
			mtime := info.ModTime()
			proj.IndexUpdatedAt = &mtime
		}
		if content, ok := s.readDoc(indexPath); ok {
			report := extract.ValidateIndex(content)
			proj.IndexIsValid = report.Valid
			proj.ProjectType = report.ProjectType
		}
	}

	return proj
}

// FindIndex returns the first index document in dir by name order.
func FindIndex(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	var matches []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(indexGlob, e.Name()); ok {
			matches = append(matches, e.Name())
		}
	}
	if len(matches) == 0 {
		return "", false
	}
	sort.Strings(matches)
	return filepath.Join(dir, matches[0]), true
}

func (s *Scanner) readDoc(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("document unreadable", "path", path, "error", err)
		}
		return "", false
	}
	return string(data), true
}

// Package provider abstracts the optional source of project health scores,
// task lists and document checks.
package provider

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/projtrack/internal/domain/project"
	"github.com/rpggio/projtrack/internal/sysexec"
)

// DefaultBinary is the executable looked up on PATH when no path is configured.
const DefaultBinary = "audit"

var (
	// ErrUnavailable indicates the provider cannot answer the request.
	ErrUnavailable = errors.New("provider data unavailable")
	// ErrUntrustedOutput indicates the provider answered with values outside
	// their documented ranges.
	ErrUntrustedOutput = errors.New("provider output rejected")
)

// Task is a single work item reported by a provider.
type Task struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

// CheckResult is the outcome of validating one document.
type CheckResult struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
}

// Provider is the capability set the tracker consumes.
type Provider interface {
	Name() string
	Health(ctx context.Context, projectPath string) (project.Health, error)
	Tasks(ctx context.Context, projectPath string) ([]Task, error)
	CheckFile(ctx context.Context, filePath string) (CheckResult, error)
	FixFile(ctx context.Context, filePath string) bool
}

// Select picks the audit provider when its binary can be found and the
// local provider otherwise. An absolute binPath that exists wins; otherwise
// binPath (or DefaultBinary when empty) is looked up through runner.
func Select(binPath string, runner sysexec.Runner, cfg AuditConfig, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if binPath != "" && filepath.IsAbs(binPath) {
		if info, err := os.Stat(binPath); err == nil && !info.IsDir() {
			logger.Info("using audit provider", "binary", binPath)
			return NewAudit(binPath, runner, cfg, logger)
		}
	}

	name := binPath
	if name == "" {
		name = DefaultBinary
	}
	if found, err := runner.LookPath(name); err == nil {
		logger.Info("using audit provider from PATH", "binary", found)
		return NewAudit(found, runner, cfg, logger)
	}

	logger.Info("audit binary not found, using local provider", "binary", name)
	return NewLocal(logger)
}

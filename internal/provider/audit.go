package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rpggio/projtrack/internal/domain/project"
	"github.com/rpggio/projtrack/internal/sysexec"
)

// AuditConfig holds per-subcommand timeouts.
type AuditConfig struct {
	HealthTimeout time.Duration
	TasksTimeout  time.Duration
	CheckTimeout  time.Duration
	FixTimeout    time.Duration
}

// DefaultAuditConfig returns the standard audit timeouts.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		HealthTimeout: 60 * time.Second,
		TasksTimeout:  30 * time.Second,
		CheckTimeout:  10 * time.Second,
		FixTimeout:    10 * time.Second,
	}
}

// Audit calls an external audit binary.
type Audit struct {
	bin    string
	runner sysexec.Runner
	cfg    AuditConfig
	logger *slog.Logger
}

// NewAudit creates a provider backed by the binary at bin.
func NewAudit(bin string, runner sysexec.Runner, cfg AuditConfig, logger *slog.Logger) *Audit {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	defaults := DefaultAuditConfig()
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = defaults.HealthTimeout
	}
	if cfg.TasksTimeout <= 0 {
		cfg.TasksTimeout = defaults.TasksTimeout
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = defaults.CheckTimeout
	}
	if cfg.FixTimeout <= 0 {
		cfg.FixTimeout = defaults.FixTimeout
	}
	return &Audit{bin: bin, runner: runner, cfg: cfg, logger: logger}
}

func (a *Audit) Name() string { return "audit" }

// Binary returns the resolved executable path.
func (a *Audit) Binary() string { return a.bin }

type healthOutput struct {
	Score *int   `json:"score"`
	Grade string `json:"grade"`
}

// Health runs `audit health <path> --json`.
func (a *Audit) Health(ctx context.Context, projectPath string) (project.Health, error) {
	out, err := a.run(ctx, a.cfg.HealthTimeout, "health", projectPath, "--json")
	if err != nil {
		return project.Health{}, err
	}

	var parsed healthOutput
	if err := json.Unmarshal(bytes.TrimSpace(out), &parsed); err != nil {
		a.logger.Error("audit health returned malformed output", "path", projectPath, "error", err)
		return project.Health{}, fmt.Errorf("%w: %v", ErrUntrustedOutput, err)
	}
	if parsed.Score == nil {
		a.logger.Error("audit health omitted score", "path", projectPath)
		return project.Health{}, fmt.Errorf("%w: missing score", ErrUntrustedOutput)
	}

	health := project.Health{Score: *parsed.Score, Grade: parsed.Grade}
	if err := project.ValidateHealth(health); err != nil {
		a.logger.Error("audit health out of range", "path", projectPath, "score", health.Score, "grade", health.Grade)
		return project.Health{}, fmt.Errorf("%w: %v", ErrUntrustedOutput, err)
	}
	return health, nil
}

// Tasks runs `audit tasks [<path>] --json` and decodes one task per line.
func (a *Audit) Tasks(ctx context.Context, projectPath string) ([]Task, error) {
	args := []string{"tasks"}
	if projectPath != "" {
		args = append(args, projectPath)
	}
	args = append(args, "--json")

	out, err := a.run(ctx, a.cfg.TasksTimeout, args...)
	if err != nil {
		return nil, err
	}

	var tasks []Task
	if err := decodeLines(out, func(dec *json.Decoder) error {
		var t Task
		if err := dec.Decode(&t); err != nil {
			return err
		}
		tasks = append(tasks, t)
		return nil
	}); err != nil {
		a.logger.Error("audit tasks returned malformed output", "path", projectPath, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUntrustedOutput, err)
	}
	return tasks, nil
}

type checkRecord struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// CheckFile runs `audit check <file> --json`. Every record must be valid for
// the file to pass; issues from all records are concatenated.
func (a *Audit) CheckFile(ctx context.Context, filePath string) (CheckResult, error) {
	out, err := a.run(ctx, a.cfg.CheckTimeout, "check", filePath, "--json")
	if err != nil {
		return CheckResult{}, err
	}

	result := CheckResult{Valid: true}
	seen := false
	if err := decodeLines(out, func(dec *json.Decoder) error {
		var rec checkRecord
		if err := dec.Decode(&rec); err != nil {
			return err
		}
		seen = true
		result.Valid = result.Valid && rec.Valid
		result.Issues = append(result.Issues, rec.Issues...)
		return nil
	}); err != nil {
		a.logger.Error("audit check returned malformed output", "file", filePath, "error", err)
		return CheckResult{}, fmt.Errorf("%w: %v", ErrUntrustedOutput, err)
	}
	if !seen {
		return CheckResult{}, fmt.Errorf("%w: empty check output", ErrUnavailable)
	}
	return result, nil
}

// FixFile runs `audit fix <file>` and reports whether it exited cleanly.
func (a *Audit) FixFile(ctx context.Context, filePath string) bool {
	_, err := a.run(ctx, a.cfg.FixTimeout, "fix", filePath)
	return err == nil
}

func (a *Audit) run(ctx context.Context, timeout time.Duration, args ...string) ([]byte, error) {
	cmd := sysexec.Command{Name: a.bin, Args: args, Timeout: timeout}
	out, err := a.runner.Run(ctx, cmd)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, context.Canceled) {
			level = slog.LevelDebug
		}
		a.logger.Log(ctx, level, "audit command failed", "command", cmd.String(), "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}

// decodeLines feeds a newline-delimited JSON stream to fn one value at a time.
func decodeLines(data []byte, fn func(*json.Decoder) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		if err := fn(dec); err != nil {
			return err
		}
	}
	return nil
}

// Package tracker wires discovery, the store, the metadata provider and the
// alert battery into the scan and alert pipelines.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/projtrack/internal/alert"
	"github.com/rpggio/projtrack/internal/discovery"
	"github.com/rpggio/projtrack/internal/domain/activity"
	"github.com/rpggio/projtrack/internal/domain/project"
	"github.com/rpggio/projtrack/internal/extract"
	"github.com/rpggio/projtrack/internal/provider"
)

// Config controls the pipelines.
type Config struct {
	// ResourcesFile is an optional markdown document listing external
	// services per project.
	ResourcesFile string
	// RefreshHealth makes every scan fetch health scores.
	RefreshHealth bool
	HealthWorkers int
}

// ScanReport summarises one scan run.
type ScanReport struct {
	ScanID        string    `json:"scan_id"`
	Root          string    `json:"root"`
	Discovered    int       `json:"discovered"`
	Upserted      []string  `json:"upserted"`
	Removed       []string  `json:"removed"`
	HealthUpdated int       `json:"health_updated"`
	Provider      string    `json:"provider"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// Engine runs scans and alert passes.
type Engine struct {
	cfg        Config
	scanner    *discovery.Scanner
	projects   *project.Service
	activities *activity.Service
	provider   provider.Provider
	aggregator *alert.Aggregator
	logger     *slog.Logger
	now        func() time.Time
}

// New creates an engine.
func New(
	cfg Config,
	scanner *discovery.Scanner,
	projects *project.Service,
	activities *activity.Service,
	prov provider.Provider,
	aggregator *alert.Aggregator,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.HealthWorkers <= 0 {
		cfg.HealthWorkers = provider.DefaultWorkers
	}
	return &Engine{
		cfg:        cfg,
		scanner:    scanner,
		projects:   projects,
		activities: activities,
		provider:   prov,
		aggregator: aggregator,
		logger:     logger,
		now:        time.Now,
	}
}

// Provider returns the metadata provider in use.
func (e *Engine) Provider() provider.Provider {
	return e.provider
}

// Scan discovers projects, syncs them into the store and records the run in
// the activity log.
func (e *Engine) Scan(ctx context.Context) (*ScanReport, error) {
	report := &ScanReport{
		ScanID:    uuid.NewString(),
		Root:      e.scanner.Root(),
		Provider:  e.provider.Name(),
		StartedAt: e.now(),
		Upserted:  []string{},
		Removed:   []string{},
	}
	logger := e.logger.With("scan_id", report.ScanID)
	logger.Info("scan started", "root", report.Root)

	discovered, err := e.scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovering projects: %w", err)
	}
	report.Discovered = len(discovered)

	services := e.loadResources()
	for i := range discovered {
		if svcs, ok := services[discovered[i].ID]; ok {
			discovered[i].Services = project.DependenciesFrom(svcs)
		}
	}

	result, err := e.projects.Sync(ctx, discovered)
	if err != nil {
		return nil, fmt.Errorf("syncing projects: %w", err)
	}
	if result.Upserted != nil {
		report.Upserted = result.Upserted
	}
	if result.Removed != nil {
		report.Removed = result.Removed
	}

	for _, p := range discovered {
		e.record(ctx, report.ScanID, p.ID, activity.TypeProjectScanned,
			fmt.Sprintf("Scanned %s", p.Name),
			map[string]any{"status": p.Status, "completion_pct": p.CompletionPct})
	}
	for _, id := range report.Removed {
		e.record(ctx, report.ScanID, id, activity.TypeProjectRemoved,
			fmt.Sprintf("Removed %s", id), nil)
	}

	if e.cfg.RefreshHealth {
		report.HealthUpdated = e.refreshHealth(ctx, report.ScanID, targetsOf(discovered))
	}

	report.FinishedAt = e.now()
	e.record(ctx, report.ScanID, "", activity.TypeScanCompleted,
		fmt.Sprintf("Scanned %d projects", report.Discovered),
		map[string]any{
			"upserted":       len(report.Upserted),
			"removed":        len(report.Removed),
			"health_updated": report.HealthUpdated,
			"duration_ms":    report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
		})
	logger.Info("scan finished",
		"discovered", report.Discovered,
		"removed", len(report.Removed),
		"health_updated", report.HealthUpdated)

	return report, nil
}

// RefreshHealth fetches health for every stored project and returns how
// many scores were updated.
func (e *Engine) RefreshHealth(ctx context.Context) (int, error) {
	stored, err := e.projects.List(ctx, "")
	if err != nil {
		return 0, err
	}
	return e.refreshHealth(ctx, uuid.NewString(), targetsOf(stored)), nil
}

func (e *Engine) refreshHealth(ctx context.Context, runID string, targets []provider.Target) int {
	results := provider.CollectHealth(ctx, e.provider, targets, e.cfg.HealthWorkers)

	updated := 0
	for _, t := range targets {
		h, ok := results[t.ProjectID]
		if !ok {
			continue
		}
		if err := e.projects.UpdateHealth(ctx, t.ProjectID, h); err != nil {
			e.logger.Warn("storing health failed", "project", t.ProjectID, "error", err)
			continue
		}
		updated++
		e.record(ctx, runID, t.ProjectID, activity.TypeHealthUpdated,
			fmt.Sprintf("Health %d (%s)", h.Score, h.Grade), map[string]any{"score": h.Score, "grade": h.Grade})
	}
	return updated
}

// Alerts loads every stored project, enriches it from disk and runs the
// detector battery.
func (e *Engine) Alerts(ctx context.Context) ([]alert.Alert, error) {
	stored, err := e.projects.List(ctx, "name")
	if err != nil {
		return nil, err
	}
	return e.alertsFor(ctx, stored), nil
}

func (e *Engine) alertsFor(ctx context.Context, stored []project.Project) []alert.Alert {
	enriched := make([]alert.Project, 0, len(stored))
	for _, p := range stored {
		enriched = append(enriched, e.Enrich(p))
	}
	return e.aggregator.Run(ctx, enriched)
}

// Stats is the dashboard summary of the stored projects.
type Stats struct {
	TotalProjects    int                    `json:"total_projects"`
	StatusCounts     map[extract.Status]int `json:"status_counts"`
	ProjectsWithCron int                    `json:"projects_with_cron"`
	ProjectsWithAI   int                    `json:"projects_with_ai"`
	Alerts           map[alert.Severity]int `json:"alerts"`
}

// Stats counts stored projects by status, by declared cron jobs and agents,
// and counts their current alerts by severity.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	stored, err := e.projects.List(ctx, "name")
	if err != nil {
		return nil, err
	}
	stats := &Stats{
		TotalProjects: len(stored),
		StatusCounts:  map[extract.Status]int{},
		Alerts: map[alert.Severity]int{
			alert.SeverityCritical: 0,
			alert.SeverityWarning:  0,
			alert.SeverityInfo:     0,
		},
	}
	for _, p := range stored {
		stats.StatusCounts[p.Status]++
		if len(p.CronJobs) > 0 {
			stats.ProjectsWithCron++
		}
		if len(p.AIAgents) > 0 {
			stats.ProjectsWithAI++
		}
	}
	for _, a := range e.alertsFor(ctx, stored) {
		stats.Alerts[a.Severity]++
	}
	return stats, nil
}

// Tasks lists the work items of a stored project through the provider.
func (e *Engine) Tasks(ctx context.Context, projectID string) ([]provider.Task, error) {
	p, err := e.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return e.provider.Tasks(ctx, p.Path)
}

// FixIndex asks the provider to repair a project's index document.
func (e *Engine) FixIndex(ctx context.Context, projectID string) (bool, error) {
	p, err := e.projects.Get(ctx, projectID)
	if err != nil {
		return false, err
	}
	path, ok := discovery.FindIndex(p.Path)
	if !ok {
		return false, fmt.Errorf("%w: %s has no index document", project.ErrInvalidInput, p.Name)
	}
	return e.provider.FixFile(ctx, path), nil
}

// Enrich attaches the documents the detectors read. Unreadable documents
// are treated as absent.
func (e *Engine) Enrich(p project.Project) alert.Project {
	out := alert.Project{Project: p}

	if todo, ok := e.readDoc(p.Path, discovery.TodoFile); ok {
		out.Todo = todo
		out.HasTodo = true
	}
	if review, ok := e.readDoc(p.Path, discovery.ReviewFile); ok {
		parsed := extract.ParseCodeReview(review)
		out.Review = &parsed
	}
	if index, ok := discovery.FindIndex(p.Path); ok {
		out.IndexPath = index
	}
	return out
}

func (e *Engine) readDoc(dir, name string) (string, bool) {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			e.logger.Debug("document unreadable", "path", path, "error", err)
		}
		return "", false
	}
	return string(data), true
}

func (e *Engine) loadResources() map[string][]extract.Service {
	if e.cfg.ResourcesFile == "" {
		return nil
	}
	data, err := os.ReadFile(e.cfg.ResourcesFile)
	if err != nil {
		e.logger.Warn("resources file unreadable", "path", e.cfg.ResourcesFile, "error", err)
		return nil
	}
	return extract.ParseResources(string(data))
}

func (e *Engine) record(ctx context.Context, scanID, projectID string, typ activity.ActivityType, summary string, details map[string]any) {
	entry := &activity.ActivityEntry{
		ScanID:       scanID,
		ProjectID:    projectID,
		ActivityType: typ,
		Summary:      summary,
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = string(raw)
		}
	}
	if err := e.activities.LogActivity(ctx, entry); err != nil {
		e.logger.Warn("recording activity failed", "type", typ, "project", projectID, "error", err)
	}
}

func targetsOf(projects []project.Project) []provider.Target {
	targets := make([]provider.Target, 0, len(projects))
	for _, p := range projects {
		targets = append(targets, provider.Target{ProjectID: p.ID, Path: p.Path})
	}
	return targets
}

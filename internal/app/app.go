// Package app assembles the tracker from configuration. Both binaries use it.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/projtrack/internal/alert"
	"github.com/rpggio/projtrack/internal/config"
	"github.com/rpggio/projtrack/internal/cronhealth"
	"github.com/rpggio/projtrack/internal/discovery"
	"github.com/rpggio/projtrack/internal/domain/activity"
	"github.com/rpggio/projtrack/internal/domain/project"
	"github.com/rpggio/projtrack/internal/logging"
	"github.com/rpggio/projtrack/internal/provider"
	"github.com/rpggio/projtrack/internal/sqlite"
	"github.com/rpggio/projtrack/internal/sysexec"
	"github.com/rpggio/projtrack/internal/tracker"
)

// App holds the wired components.
type App struct {
	Config     config.Config
	DB         *sqlite.DB
	Projects   *project.Service
	Activities *activity.Service
	Provider   provider.Provider
	Engine     *tracker.Engine
	Logger     *slog.Logger
}

// Build opens the database, runs migrations and wires every component.
func Build(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	runner := sysexec.NewExecRunner()
	projectSvc := project.NewService(sqlite.NewProjectRepository(db), logger)
	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), logger)

	prov := provider.Select(cfg.Audit.Bin, runner, provider.AuditConfig{
		HealthTimeout: cfg.Audit.HealthTimeout,
		TasksTimeout:  cfg.Audit.TasksTimeout,
		CheckTimeout:  cfg.Audit.CheckTimeout,
		FixTimeout:    cfg.Audit.FixTimeout,
	}, logger)

	scanCfg := discovery.DefaultConfig(cfg.Projects.Root)
	if cfg.Scan.GitTimeout > 0 {
		scanCfg.GitTimeout = cfg.Scan.GitTimeout
	}
	scanner := discovery.NewScanner(runner, scanCfg, logger)

	cronCfg := cronhealth.DefaultConfig()
	if cfg.Cron.CrontabTimeout > 0 {
		cronCfg.CrontabTimeout = cfg.Cron.CrontabTimeout
	}
	if cfg.Cron.Grace > 0 {
		cronCfg.Grace = cfg.Cron.Grace
	}
	checker := cronhealth.NewChecker(runner, cronCfg, logger)

	aggregator := alert.NewAggregator(logger,
		alert.DefaultDetectors(alert.Config{StalledDays: cfg.Alerts.StalledDays}, checker, prov, logger)...)

	engine := tracker.New(tracker.Config{
		ResourcesFile: cfg.Projects.ResourcesFile,
		RefreshHealth: cfg.Scan.RefreshHealth,
		HealthWorkers: cfg.Audit.Workers,
	}, scanner, projectSvc, activitySvc, prov, aggregator, logger)

	logger.Info("tracker ready", "root", cfg.Projects.Root, "db", cfg.DB.Path, "provider", prov.Name())

	return &App{
		Config:     cfg,
		DB:         db,
		Projects:   projectSvc,
		Activities: activitySvc,
		Provider:   prov,
		Engine:     engine,
		Logger:     logger,
	}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

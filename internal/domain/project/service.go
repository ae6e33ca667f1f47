package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rpggio/projtrack/internal/extract"
	"github.com/rpggio/projtrack/internal/repository"
)

var validGrades = map[string]bool{"A": true, "B": true, "C": true, "D": true, "F": true}

// Service handles project operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new project service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger}
}

// SyncResult reports what a sync changed in the store.
type SyncResult struct {
	Upserted []string `json:"upserted"`
	Removed  []string `json:"removed"`
}

// Sync makes the store mirror a fresh discovery pass: projects no longer
// found are removed, the rest are upserted and their child collections
// replaced.
func (s *Service) Sync(ctx context.Context, projects []Project) (SyncResult, error) {
	var result SyncResult

	existing, err := s.repo.ListIDs(ctx)
	if err != nil {
		return result, fmt.Errorf("listing projects: %w", err)
	}

	found := make(map[string]bool, len(projects))
	for _, p := range projects {
		found[p.ID] = true
	}
	for _, id := range existing {
		if found[id] {
			continue
		}
		if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return result, fmt.Errorf("removing project %s: %w", id, err)
		}
		s.logger.Info("removed stale project", "project_id", id)
		result.Removed = append(result.Removed, id)
	}

	for i := range projects {
		p := &projects[i]
		if err := s.repo.Upsert(ctx, p); err != nil {
			return result, fmt.Errorf("upserting project %s: %w", p.ID, err)
		}
		if err := s.replaceChildren(ctx, p); err != nil {
			return result, err
		}
		result.Upserted = append(result.Upserted, p.ID)
	}

	return result, nil
}

func (s *Service) replaceChildren(ctx context.Context, p *Project) error {
	if err := s.repo.DeleteAgents(ctx, p.ID); err != nil {
		return fmt.Errorf("clearing agents of %s: %w", p.ID, err)
	}
	for i := range p.AIAgents {
		p.AIAgents[i].ProjectID = p.ID
		if err := s.repo.AddAgent(ctx, &p.AIAgents[i]); err != nil {
			return fmt.Errorf("adding agent to %s: %w", p.ID, err)
		}
	}

	if err := s.repo.DeleteCronJobs(ctx, p.ID); err != nil {
		return fmt.Errorf("clearing cron jobs of %s: %w", p.ID, err)
	}
	for i := range p.CronJobs {
		p.CronJobs[i].ProjectID = p.ID
		if err := s.repo.AddCronJob(ctx, &p.CronJobs[i]); err != nil {
			return fmt.Errorf("adding cron job to %s: %w", p.ID, err)
		}
	}

	if err := s.repo.DeleteDependencies(ctx, p.ID); err != nil {
		return fmt.Errorf("clearing services of %s: %w", p.ID, err)
	}
	for i := range p.Services {
		p.Services[i].ProjectID = p.ID
		if err := s.repo.AddDependency(ctx, &p.Services[i]); err != nil {
			return fmt.Errorf("adding service to %s: %w", p.ID, err)
		}
	}
	return nil
}

// Get fetches a project by ID together with its child collections.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	proj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	if err := s.loadChildren(ctx, proj); err != nil {
		return nil, err
	}
	return proj, nil
}

// FindByName resolves a project by ID, or by case-insensitive name.
func (s *Service) FindByName(ctx context.Context, name string) (*Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidInput
	}
	proj, err := s.Get(ctx, extract.Slug(name))
	if err == nil || !errors.Is(err, ErrProjectNotFound) {
		return proj, err
	}

	all, err := s.repo.List(ctx, "name")
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	for _, p := range all {
		if strings.EqualFold(p.Name, name) {
			return s.Get(ctx, p.ID)
		}
	}
	return nil, ErrProjectNotFound
}

// List returns every project ordered by sortKey, with child collections.
// An unknown sort key is returned as repository.ErrInvalidSortKey.
func (s *Service) List(ctx context.Context, sortKey string) ([]Project, error) {
	projects, err := s.repo.List(ctx, sortKey)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	for i := range projects {
		if err := s.loadChildren(ctx, &projects[i]); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

func (s *Service) loadChildren(ctx context.Context, p *Project) error {
	var err error
	if p.AIAgents, err = s.repo.ListAgents(ctx, p.ID); err != nil {
		return fmt.Errorf("loading agents of %s: %w", p.ID, err)
	}
	if p.CronJobs, err = s.repo.ListCronJobs(ctx, p.ID); err != nil {
		return fmt.Errorf("loading cron jobs of %s: %w", p.ID, err)
	}
	if p.Services, err = s.repo.ListDependencies(ctx, p.ID); err != nil {
		return fmt.Errorf("loading services of %s: %w", p.ID, err)
	}
	return nil
}

// Delete removes a project and, by cascade, its child collections.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("deleting project: %w", err)
	}
	return nil
}

// UpdateFields applies a partial update. Unknown field names are returned as
// repository.ErrInvalidField.
func (s *Service) UpdateFields(ctx context.Context, id string, fields Fields) error {
	if len(fields) == 0 {
		return ErrInvalidInput
	}
	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("updating project: %w", err)
	}
	return nil
}

// ValidateHealth checks that a score lies in 0-100 and the grade is A-D or F.
func ValidateHealth(h Health) error {
	if h.Score < 0 || h.Score > 100 {
		return fmt.Errorf("%w: score %d", ErrInvalidHealth, h.Score)
	}
	if !validGrades[h.Grade] {
		return fmt.Errorf("%w: grade %q", ErrInvalidHealth, h.Grade)
	}
	return nil
}

// UpdateHealth stores a validated health score.
func (s *Service) UpdateHealth(ctx context.Context, id string, h Health) error {
	if err := ValidateHealth(h); err != nil {
		return err
	}
	if err := s.repo.UpdateHealth(ctx, id, h); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("updating health: %w", err)
	}
	return nil
}

// AddAgent declares an AI agent for a project.
func (s *Service) AddAgent(ctx context.Context, projectID, name, role string) (*Agent, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidInput
	}
	agent := &Agent{ProjectID: projectID, Name: strings.TrimSpace(name), Role: strings.TrimSpace(role)}
	if err := s.repo.AddAgent(ctx, agent); err != nil {
		return nil, s.childError("adding agent", err)
	}
	return agent, nil
}

// AddCronJob declares a cron job for a project.
func (s *Service) AddCronJob(ctx context.Context, projectID, schedule, command, description string) (*CronJob, error) {
	if strings.TrimSpace(schedule) == "" || strings.TrimSpace(command) == "" {
		return nil, ErrInvalidInput
	}
	job := &CronJob{
		ProjectID:   projectID,
		Schedule:    strings.TrimSpace(schedule),
		Command:     strings.TrimSpace(command),
		Description: strings.TrimSpace(description),
	}
	if err := s.repo.AddCronJob(ctx, job); err != nil {
		return nil, s.childError("adding cron job", err)
	}
	return job, nil
}

// AddDependency records an external service dependency for a project.
func (s *Service) AddDependency(ctx context.Context, projectID, name, purpose string, cost *float64) (*Dependency, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidInput
	}
	dep := &Dependency{ProjectID: projectID, Name: strings.TrimSpace(name), Purpose: strings.TrimSpace(purpose), CostMonthly: cost}
	if err := s.repo.AddDependency(ctx, dep); err != nil {
		return nil, s.childError("adding service", err)
	}
	return dep, nil
}

func (s *Service) childError(op string, err error) error {
	if errors.Is(err, repository.ErrForeignKeyViolation) {
		return ErrProjectNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

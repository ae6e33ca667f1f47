package mocks

import (
	"context"

	"github.com/rpggio/projtrack/internal/domain/activity"
	"github.com/rpggio/projtrack/internal/domain/project"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Upsert(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context, sortKey string) ([]project.Project, error) {
	args := m.Called(ctx, sortKey)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) UpdateFields(ctx context.Context, id string, fields project.Fields) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *ProjectRepository) UpdateHealth(ctx context.Context, id string, health project.Health) error {
	args := m.Called(ctx, id, health)
	return args.Error(0)
}

func (m *ProjectRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ProjectRepository) AddAgent(ctx context.Context, agent *project.Agent) error {
	args := m.Called(ctx, agent)
	return args.Error(0)
}

func (m *ProjectRepository) ListAgents(ctx context.Context, projectID string) ([]project.Agent, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]project.Agent); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) DeleteAgents(ctx context.Context, projectID string) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

func (m *ProjectRepository) AddCronJob(ctx context.Context, job *project.CronJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *ProjectRepository) ListCronJobs(ctx context.Context, projectID string) ([]project.CronJob, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]project.CronJob); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) DeleteCronJobs(ctx context.Context, projectID string) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

func (m *ProjectRepository) AddDependency(ctx context.Context, dep *project.Dependency) error {
	args := m.Called(ctx, dep)
	return args.Error(0)
}

func (m *ProjectRepository) ListDependencies(ctx context.Context, projectID string) ([]project.Dependency, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]project.Dependency); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) DeleteDependencies(ctx context.Context, projectID string) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

package project

import "context"

// Repository provides persistence for projects and their child collections.
type Repository interface {
	Upsert(ctx context.Context, proj *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context, sortKey string) ([]Project, error)
	ListIDs(ctx context.Context) ([]string, error)
	UpdateFields(ctx context.Context, id string, fields Fields) error
	UpdateHealth(ctx context.Context, id string, health Health) error
	Delete(ctx context.Context, id string) error

	AddAgent(ctx context.Context, agent *Agent) error
	ListAgents(ctx context.Context, projectID string) ([]Agent, error)
	DeleteAgents(ctx context.Context, projectID string) error

	AddCronJob(ctx context.Context, job *CronJob) error
	ListCronJobs(ctx context.Context, projectID string) ([]CronJob, error)
	DeleteCronJobs(ctx context.Context, projectID string) error

	AddDependency(ctx context.Context, dep *Dependency) error
	ListDependencies(ctx context.Context, projectID string) ([]Dependency, error)
	DeleteDependencies(ctx context.Context, projectID string) error
}

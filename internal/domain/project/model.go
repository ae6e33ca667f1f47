package project

import (
	"time"

	"github.com/rpggio/projtrack/internal/extract"
)

// Project is the persisted projection of one discovered project directory.
// Everything except CreatedAt and the health fields is re-derived on every
// scan.
type Project struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Path             string         `json:"path"`
	Status           extract.Status `json:"status"`
	Phase            string         `json:"phase,omitempty"`
	Description      string         `json:"description,omitempty"`
	CompletionPct    int            `json:"completion_pct"`
	LastModified     time.Time      `json:"last_modified"`
	IsInfrastructure bool           `json:"is_infrastructure"`
	HasIndex         bool           `json:"has_index"`
	IndexIsValid     bool           `json:"index_is_valid"`
	IndexUpdatedAt   *time.Time     `json:"index_updated_at,omitempty"`
	ProjectType      string         `json:"project_type,omitempty"`
	HealthScore      *int           `json:"health_score,omitempty"`
	HealthGrade      string         `json:"health_grade,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`

	AIAgents []Agent      `json:"ai_agents,omitempty"`
	CronJobs []CronJob    `json:"cron_jobs,omitempty"`
	Services []Dependency `json:"services,omitempty"`
}

// Agent is an AI agent declared for a project.
type Agent struct {
	ID        int64  `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"agent_name"`
	Role      string `json:"role,omitempty"`
}

// CronJob is a scheduled task declared for a project.
type CronJob struct {
	ID          int64  `json:"id"`
	ProjectID   string `json:"project_id"`
	Schedule    string `json:"schedule"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
}

// Dependency is an external service a project depends on.
type Dependency struct {
	ID          int64    `json:"id"`
	ProjectID   string   `json:"project_id"`
	Name        string   `json:"service_name"`
	Purpose     string   `json:"purpose,omitempty"`
	CostMonthly *float64 `json:"cost_monthly,omitempty"`
}

// Health is an externally computed project health score.
type Health struct {
	Score int    `json:"score"`
	Grade string `json:"grade"`
}

// Fields is a partial update keyed by column name.
type Fields map[string]any

// AgentsFrom converts an extracted roster.
func AgentsFrom(in []extract.Agent) []Agent {
	out := make([]Agent, 0, len(in))
	for _, a := range in {
		out = append(out, Agent{Name: a.Name, Role: a.Role})
	}
	return out
}

// CronJobsFrom converts extracted cron declarations.
func CronJobsFrom(in []extract.CronJob) []CronJob {
	out := make([]CronJob, 0, len(in))
	for _, j := range in {
		out = append(out, CronJob{Schedule: j.Schedule, Command: j.Command, Description: j.Description})
	}
	return out
}

// DependenciesFrom converts parsed external resources.
func DependenciesFrom(in []extract.Service) []Dependency {
	out := make([]Dependency, 0, len(in))
	for _, s := range in {
		out = append(out, Dependency{Name: s.Name, Purpose: s.Purpose, CostMonthly: s.CostMonthly})
	}
	return out
}

// Jobs returns the declared cron jobs in extractor form.
func (p *Project) Jobs() []extract.CronJob {
	out := make([]extract.CronJob, 0, len(p.CronJobs))
	for _, j := range p.CronJobs {
		out = append(out, extract.CronJob{Schedule: j.Schedule, Command: j.Command, Description: j.Description})
	}
	return out
}

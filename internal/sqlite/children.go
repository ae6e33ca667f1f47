package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/projtrack/internal/domain/project"
	"github.com/rpggio/projtrack/internal/repository"
)

// AddAgent inserts an AI agent row for an existing project.
func (r *ProjectRepository) AddAgent(ctx context.Context, agent *project.Agent) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO ai_agents (project_id, agent_name, role) VALUES (?, ?, ?)`,
		agent.ProjectID, agent.Name, nullString(agent.Role))
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to add agent: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		agent.ID = id
	}
	return nil
}

// ListAgents returns a project's agents in insertion order.
func (r *ProjectRepository) ListAgents(ctx context.Context, projectID string) ([]project.Agent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, agent_name, role FROM ai_agents WHERE project_id = ? ORDER BY id`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	agents := []project.Agent{}
	for rows.Next() {
		var a project.Agent
		var role sql.NullString
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Name, &role); err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		a.Role = role.String
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agent rows: %w", err)
	}
	return agents, nil
}

// DeleteAgents removes every agent of a project.
func (r *ProjectRepository) DeleteAgents(ctx context.Context, projectID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM ai_agents WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to delete agents: %w", err)
	}
	return nil
}

// AddCronJob inserts a cron job row for an existing project.
func (r *ProjectRepository) AddCronJob(ctx context.Context, job *project.CronJob) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO cron_jobs (project_id, schedule, command, description) VALUES (?, ?, ?, ?)`,
		job.ProjectID, job.Schedule, job.Command, nullString(job.Description))
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		job.ID = id
	}
	return nil
}

// ListCronJobs returns a project's cron jobs in insertion order.
func (r *ProjectRepository) ListCronJobs(ctx context.Context, projectID string) ([]project.CronJob, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, schedule, command, description FROM cron_jobs WHERE project_id = ? ORDER BY id`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cron jobs: %w", err)
	}
	defer rows.Close()

	jobs := []project.CronJob{}
	for rows.Next() {
		var j project.CronJob
		var description sql.NullString
		if err := rows.Scan(&j.ID, &j.ProjectID, &j.Schedule, &j.Command, &description); err != nil {
			return nil, fmt.Errorf("failed to scan cron job: %w", err)
		}
		j.Description = description.String
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cron job rows: %w", err)
	}
	return jobs, nil
}

// DeleteCronJobs removes every cron job of a project.
func (r *ProjectRepository) DeleteCronJobs(ctx context.Context, projectID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cron_jobs WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to delete cron jobs: %w", err)
	}
	return nil
}

// AddDependency inserts an external service row for an existing project.
func (r *ProjectRepository) AddDependency(ctx context.Context, dep *project.Dependency) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO service_dependencies (project_id, service_name, purpose, cost_monthly) VALUES (?, ?, ?, ?)`,
		dep.ProjectID, dep.Name, nullString(dep.Purpose), dep.CostMonthly)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to add service: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		dep.ID = id
	}
	return nil
}

// ListDependencies returns a project's external services in insertion order.
func (r *ProjectRepository) ListDependencies(ctx context.Context, projectID string) ([]project.Dependency, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, service_name, purpose, cost_monthly FROM service_dependencies WHERE project_id = ? ORDER BY id`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	deps := []project.Dependency{}
	for rows.Next() {
		var d project.Dependency
		var purpose sql.NullString
		var cost sql.NullFloat64
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Name, &purpose, &cost); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		d.Purpose = purpose.String
		if cost.Valid {
			v := cost.Float64
			d.CostMonthly = &v
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating service rows: %w", err)
	}
	return deps, nil
}

// DeleteDependencies removes every external service of a project.
func (r *ProjectRepository) DeleteDependencies(ctx context.Context, projectID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM service_dependencies WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to delete services: %w", err)
	}
	return nil
}

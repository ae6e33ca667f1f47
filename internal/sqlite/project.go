package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rpggio/projtrack/internal/domain/project"
	"github.com/rpggio/projtrack/internal/extract"
	"github.com/rpggio/projtrack/internal/repository"
)

const projectColumns = `
	id, name, path, status, phase, description, completion_pct, last_modified,
	is_infrastructure, has_index, index_is_valid, index_updated_at, project_type,
	health_score, health_grade, created_at, updated_at`

// sortColumns maps accepted sort keys to columns. The map is the only source
// of ORDER BY text.
var sortColumns = map[string]string{
	"name":           "name",
	"status":         "status",
	"last_modified":  "last_modified",
	"completion_pct": "completion_pct",
}

// updatableColumns lists the fields UpdateFields accepts.
var updatableColumns = map[string]bool{
	"name":              true,
	"path":              true,
	"status":            true,
	"phase":             true,
	"description":       true,
	"completion_pct":    true,
	"last_modified":     true,
	"is_infrastructure": true,
	"has_index":         true,
	"index_is_valid":    true,
	"index_updated_at":  true,
	"project_type":      true,
}

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db  *DB
	now func() time.Time
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db, now: time.Now}
}

// Upsert inserts a project or refreshes its scan-derived columns. CreatedAt
// and stored health survive the update unless the incoming project carries
// health of its own.
func (r *ProjectRepository) Upsert(ctx context.Context, proj *project.Project) error {
	now := r.now().UTC()
	if proj.Status == "" {
		proj.Status = extract.StatusUnknown
	}

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			path = excluded.path,
			status = excluded.status,
			phase = excluded.phase,
			description = excluded.description,
			completion_pct = excluded.completion_pct,
			last_modified = excluded.last_modified,
			is_infrastructure = excluded.is_infrastructure,
			has_index = excluded.has_index,
			index_is_valid = excluded.index_is_valid,
			index_updated_at = excluded.index_updated_at,
			project_type = excluded.project_type,
			health_score = COALESCE(excluded.health_score, projects.health_score),
			health_grade = COALESCE(excluded.health_grade, projects.health_grade),
			updated_at = excluded.updated_at
	`

	lastModified := proj.LastModified
	_, err := r.db.ExecContext(ctx, query,
		proj.ID,
		proj.Name,
		proj.Path,
		string(proj.Status),
		nullString(proj.Phase),
		nullString(proj.Description),
		proj.CompletionPct,
		nullTime(&lastModified),
		proj.IsInfrastructure,
		proj.HasIndex,
		proj.IndexIsValid,
		nullTime(proj.IndexUpdatedAt),
		nullString(proj.ProjectType),
		proj.HealthScore,
		nullString(proj.HealthGrade),
		now,
		now,
	)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: %v", repository.ErrInvalidField, err)
		}
		return fmt.Errorf("failed to upsert project: %w", err)
	}

	stored, err := r.Get(ctx, proj.ID)
	if err != nil {
		return err
	}
	proj.CreatedAt = stored.CreatedAt
	proj.UpdatedAt = stored.UpdatedAt
	proj.HealthScore = stored.HealthScore
	proj.HealthGrade = stored.HealthGrade

	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`

	proj, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return proj, nil
}

// List returns all projects ordered by sortKey. A key is a column name from
// sortColumns with an optional ASC or DESC; the empty key sorts by name.
func (r *ProjectRepository) List(ctx context.Context, sortKey string) ([]project.Project, error) {
	order, err := orderClause(sortKey)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY ` + order

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *proj)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return projects, nil
}

func orderClause(sortKey string) (string, error) {
	fields := strings.Fields(sortKey)
	if len(fields) == 0 {
		return "name ASC", nil
	}
	if len(fields) > 2 {
		return "", fmt.Errorf("%w: %q", repository.ErrInvalidSortKey, sortKey)
	}

	column, ok := sortColumns[strings.ToLower(fields[0])]
	if !ok {
		return "", fmt.Errorf("%w: %q", repository.ErrInvalidSortKey, sortKey)
	}

	direction := "ASC"
	if len(fields) == 2 {
		direction = strings.ToUpper(fields[1])
		if direction != "ASC" && direction != "DESC" {
			return "", fmt.Errorf("%w: %q", repository.ErrInvalidSortKey, sortKey)
		}
	}

	if column == "name" {
		return "name " + direction, nil
	}
	return column + " " + direction + ", name ASC", nil
}

// ListIDs returns the IDs of every stored project.
func (r *ProjectRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list project ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project ids: %w", err)
	}
	return ids, nil
}

// UpdateFields applies a partial update restricted to updatableColumns.
func (r *ProjectRepository) UpdateFields(ctx context.Context, id string, fields project.Fields) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		if !updatableColumns[name] {
			return fmt.Errorf("%w: %q", repository.ErrInvalidField, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	sets := make([]string, 0, len(names)+1)
	args := make([]interface{}, 0, len(names)+2)
	for _, name := range names {
		sets = append(sets, name+" = ?")
		args = append(args, fields[name])
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, r.now().UTC(), id)

	query := `UPDATE projects SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: %v", repository.ErrInvalidField, err)
		}
		return fmt.Errorf("failed to update project: %w", err)
	}
	return requireAffected(result)
}

// UpdateHealth stores a health score and grade.
func (r *ProjectRepository) UpdateHealth(ctx context.Context, id string, health project.Health) error {
	query := `
		UPDATE projects
		SET health_score = ?, health_grade = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, health.Score, health.Grade, r.now().UTC(), id)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: %v", repository.ErrInvalidField, err)
		}
		return fmt.Errorf("failed to update health: %w", err)
	}
	return requireAffected(result)
}

// Delete removes a project; child rows go with it.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*project.Project, error) {
	var (
		proj           project.Project
		status         string
		phase          sql.NullString
		description    sql.NullString
		lastModified   sql.NullTime
		indexUpdatedAt sql.NullTime
		projectType    sql.NullString
		healthScore    sql.NullInt64
		healthGrade    sql.NullString
	)
	err := row.Scan(
		&proj.ID,
		&proj.Name,
		&proj.Path,
		&status,
		&phase,
		&description,
		&proj.CompletionPct,
		&lastModified,
		&proj.IsInfrastructure,
		&proj.HasIndex,
		&proj.IndexIsValid,
		&indexUpdatedAt,
		&projectType,
		&healthScore,
		&healthGrade,
		&proj.CreatedAt,
		&proj.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	proj.Status = extract.Status(status)
	proj.Phase = phase.String
	proj.Description = description.String
	proj.ProjectType = projectType.String
	proj.HealthGrade = healthGrade.String
	if lastModified.Valid {
		proj.LastModified = lastModified.Time
	}
	if indexUpdatedAt.Valid {
		t := indexUpdatedAt.Time
		proj.IndexUpdatedAt = &t
	}
	if healthScore.Valid {
		score := int(healthScore.Int64)
		proj.HealthScore = &score
	}

	return &proj, nil
}

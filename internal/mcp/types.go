package mcp

import (
	"time"

	"github.com/rpggio/projtrack/internal/alert"
	"github.com/rpggio/projtrack/internal/domain/activity"
	"github.com/rpggio/projtrack/internal/domain/project"
	"github.com/rpggio/projtrack/internal/extract"
)

type ScanProjectsParams struct{}

type ListProjectsParams struct {
	Sort   string `json:"sort,omitempty" jsonschema:"sort key: name, status, last_modified or completion_pct, optionally followed by ASC or DESC"`
	Status string `json:"status,omitempty" jsonschema:"only return projects with this status"`
}

type GetProjectParams struct {
	Name string `json:"name" jsonschema:"project id or display name"`
}

type GetAlertsParams struct {
	Severity string `json:"severity,omitempty" jsonschema:"only return alerts of this severity: critical, warning or info"`
	Project  string `json:"project,omitempty" jsonschema:"only return alerts for this project id"`
}

type GetStatsParams struct{}

type GetActivityParams struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"filter by project id"`
	ScanID    string `json:"scan_id,omitempty" jsonschema:"filter by scan run id"`
	Type      string `json:"type,omitempty" jsonschema:"filter by activity type"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum entries, default 50"`
	Offset    int    `json:"offset,omitempty" jsonschema:"entries to skip"`
}

// ProjectSummary is the compact listing form of a project.
type ProjectSummary struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Status        extract.Status `json:"status"`
	Phase         string         `json:"phase,omitempty"`
	CompletionPct int            `json:"completion_pct"`
	LastModified  time.Time      `json:"last_modified"`
	HealthScore   *int           `json:"health_score,omitempty"`
	HealthGrade   string         `json:"health_grade,omitempty"`
	HasIndex      bool           `json:"has_index"`
}

type ListProjectsResult struct {
	Projects []ProjectSummary `json:"projects"`
	Count    int              `json:"count"`
}

type AlertsResult struct {
	Alerts   []alert.Alert          `json:"alerts"`
	Counts   map[alert.Severity]int `json:"counts"`
	Projects int                    `json:"projects_with_alerts"`
}

type ActivityResult struct {
	Entries []activity.ActivityEntry `json:"entries"`
}

func summarize(p project.Project) ProjectSummary {
	return ProjectSummary{
		ID:            p.ID,
		Name:          p.Name,
		Status:        p.Status,
		Phase:         p.Phase,
		CompletionPct: p.CompletionPct,
		LastModified:  p.LastModified,
		HealthScore:   p.HealthScore,
		HealthGrade:   p.HealthGrade,
		HasIndex:      p.HasIndex,
	}
}

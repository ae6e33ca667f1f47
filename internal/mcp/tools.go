package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/projtrack/internal/alert"
	"github.com/rpggio/projtrack/internal/domain/activity"
	"github.com/rpggio/projtrack/internal/extract"
)

func registerTools(server *sdkmcp.Server, svc Services, logger *slog.Logger) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "scan_projects",
		Description: "Rescan the projects directory and sync the tracker database",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ ScanProjectsParams) (*sdkmcp.CallToolResult, any, error) {
		logger.Info("scan requested", "session_id", getSessionID(ctx))
		report, err := svc.Engine.Scan(ctx)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return jsonResult(report)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List tracked projects with status, completion and health",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListProjectsParams) (*sdkmcp.CallToolResult, any, error) {
		projects, err := svc.Projects.List(ctx, in.Sort)
		if err != nil {
			return nil, nil, toolError(err)
		}
		out := ListProjectsResult{Projects: []ProjectSummary{}}
		for _, p := range projects {
			if in.Status != "" && !strings.EqualFold(string(p.Status), in.Status) {
				continue
			}
			out.Projects = append(out.Projects, summarize(p))
		}
		out.Count = len(out.Projects)
		return jsonResult(out)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_project",
		Description: "Get one project with its AI agents, cron jobs and external services",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetProjectParams) (*sdkmcp.CallToolResult, any, error) {
		p, err := svc.Projects.FindByName(ctx, in.Name)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return jsonResult(p)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_alerts",
		Description: "Run every health check and return alerts ordered by severity, then project name",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetAlertsParams) (*sdkmcp.CallToolResult, any, error) {
		alerts, err := svc.Engine.Alerts(ctx)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return jsonResult(filterAlerts(alerts, in))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_stats",
		Description: "Summarize tracked projects: totals, counts by status, projects with cron jobs or AI agents, and alert counts by severity",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ GetStatsParams) (*sdkmcp.CallToolResult, any, error) {
		stats, err := svc.Engine.Stats(ctx)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return jsonResult(stats)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_activity",
		Description: "List recent scan activity, newest first",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetActivityParams) (*sdkmcp.CallToolResult, any, error) {
		opts := activity.ListActivityOptions{
			ProjectID: in.ProjectID,
			ScanID:    in.ScanID,
			Limit:     in.Limit,
			Offset:    in.Offset,
		}
		if in.Type != "" {
			t := activity.ActivityType(in.Type)
			opts.ActivityType = &t
		}
		entries, err := svc.Activity.GetRecentActivity(ctx, opts)
		if err != nil {
			return nil, nil, toolError(err)
		}
		if entries == nil {
			entries = []activity.ActivityEntry{}
		}
		return jsonResult(ActivityResult{Entries: entries})
	})
}

func filterAlerts(alerts []alert.Alert, in GetAlertsParams) AlertsResult {
	out := AlertsResult{
		Alerts: []alert.Alert{},
		Counts: map[alert.Severity]int{},
	}
	seen := map[string]bool{}
	for _, a := range alerts {
		if in.Severity != "" && !strings.EqualFold(string(a.Severity), in.Severity) {
			continue
		}
		if in.Project != "" && a.ProjectID != extract.Slug(in.Project) {
			continue
		}
		out.Alerts = append(out.Alerts, a)
		out.Counts[a.Severity]++
		seen[a.ProjectID] = true
	}
	out.Projects = len(seen)
	return out
}

func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encoding result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}

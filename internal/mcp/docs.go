package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `projtrack watches a directory of software projects and reports what needs attention.

Core concepts:
- Project: an immediate child directory of the projects root with a .git, README.md, TODO.md or source file.
- Scan: re-reads every project from disk. Projects that vanished are removed; health scores survive.
- Alert: one finding about one project, with severity critical, warning or info.

Default workflow:
1) get_alerts to see what needs attention (critical first).
2) list_projects / get_project for detail on a specific project.
3) scan_projects after changing files on disk; get_activity to see what the last scan did.

Docs:
- projtrack://docs/index (tools and alert types)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "projtrack://docs/index",
		Name:        "docs_index",
		Title:       "projtrack docs index",
		Description: "Tools, alert types and the documents projtrack reads from each project.",
		Content: `# projtrack

## Tools

- ` + "`scan_projects`" + ` rescans the projects root and returns a scan report.
- ` + "`list_projects`" + ` takes an optional ` + "`sort`" + ` (name, status, last_modified, completion_pct, with ASC or DESC) and ` + "`status`" + ` filter.
- ` + "`get_project`" + ` accepts a project id or display name.
- ` + "`get_alerts`" + ` runs every check; filter with ` + "`severity`" + ` or ` + "`project`" + `.
- ` + "`get_stats`" + ` returns project totals, counts by status and alert counts by severity.
- ` + "`get_activity`" + ` lists scan events, newest first (default limit 50).

## Documents read per project

- ` + "`TODO.md`" + `: status, phase, completion (checked boxes / all boxes), description, AI agents, cron jobs, blockers, gaps.
- ` + "`README.md`" + `: description fallback.
- ` + "`00_Index_*.md`" + `: required index with YAML frontmatter tags and Core Components / Status sections.
- ` + "`CODE_REVIEW.md`" + `: reviewer, verdict, action item progress.

## Alert types

| type | severity |
|---|---|
| blocked | critical |
| cron_missed_run, cron_execution_error | critical |
| code_review | warning (info when approved) |
| cron_not_installed, cron_invalid_schedule | warning |
| stalled | warning |
| missing_index, invalid_index, invalid_frontmatter | warning |
| gaps, missing_todo, unknown_status | info |

Alerts are ordered by severity, then project name.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}

package functional_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/projtrack/internal/testserver"
	"github.com/stretchr/testify/require"
)

func connectHTTP(t *testing.T, ts *testserver.TestServer) *sdkmcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{Endpoint: ts.Server.URL + "/mcp"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

// callTool makes a tools/call request and unwraps the text result.
func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) (json.RawMessage, bool) {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return json.RawMessage(text.Text), result.IsError
}

func TestHTTPFunctional_ScanAlertsAndActivity(t *testing.T) {
	ts := testserver.New(t)
	ts.WriteFile(t, "alpha/TODO.md", "# Alpha\n\n**Project Status:** Active\n\n## Blockers\n- vendor contract\n")
	ts.WriteFile(t, "beta/main.go", "package main\n")
	ts.WriteFile(t, "_archive/README.md", "# Archived\n")

	session := connectHTTP(t, ts)

	raw, isErr := callTool(t, session, "scan_projects", nil)
	require.False(t, isErr, string(raw))
	var report struct {
		ScanID   string   `json:"scan_id"`
		Upserted []string `json:"upserted"`
	}
	require.NoError(t, json.Unmarshal(raw, &report))
	require.Equal(t, []string{"alpha", "beta"}, report.Upserted)

	raw, isErr = callTool(t, session, "get_alerts", map[string]any{"severity": "critical"})
	require.False(t, isErr)
	var alerts struct {
		Alerts []struct {
			ProjectID string `json:"project_id"`
			Type      string `json:"type"`
			Details   string `json:"details"`
		} `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(raw, &alerts))
	require.Len(t, alerts.Alerts, 1)
	require.Equal(t, "blocked", alerts.Alerts[0].Type)
	require.Equal(t, "vendor contract", alerts.Alerts[0].Details)

	raw, isErr = callTool(t, session, "get_activity", map[string]any{"scan_id": report.ScanID})
	require.False(t, isErr)
	var activity struct {
		Entries []struct {
			Type string `json:"type"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(raw, &activity))
	require.Len(t, activity.Entries, 3)

	raw, isErr = callTool(t, session, "get_project", map[string]any{"name": "nope"})
	require.True(t, isErr)
	require.Contains(t, string(raw), "PROJECT_NOT_FOUND")
}

func TestHTTPFunctional_RESTAPI(t *testing.T) {
	ts := testserver.New(t)
	ts.WriteFile(t, "gamma/README.md", "# Gamma\n\nThird project.\n")

	resp, err := http.Post(ts.Server.URL+"/api/scan", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.Server.URL + "/api/projects/gamma")
	require.NoError(t, err)
	var p struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	resp.Body.Close()
	require.Equal(t, "Third project.", p.Description)

	req, err := http.NewRequest(http.MethodDelete, ts.Server.URL+"/api/projects/gamma", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.Server.URL + "/api/projects/gamma")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

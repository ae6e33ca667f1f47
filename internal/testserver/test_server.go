// Package testserver runs the full tracker stack behind an httptest server
// for end-to-end tests.
package testserver

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/projtrack/internal/alert"
	"github.com/rpggio/projtrack/internal/discovery"
	"github.com/rpggio/projtrack/internal/domain/activity"
	"github.com/rpggio/projtrack/internal/domain/project"
	"github.com/rpggio/projtrack/internal/mcp"
	"github.com/rpggio/projtrack/internal/provider"
	"github.com/rpggio/projtrack/internal/sqlite"
	"github.com/rpggio/projtrack/internal/sysexec"
	"github.com/rpggio/projtrack/internal/tracker"
	"github.com/rpggio/projtrack/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Root     string
	Engine   *tracker.Engine
	Projects *project.Service
}

// New starts a server over an empty projects root in t.TempDir. Projects
// use the local provider and cron checks are disabled.
func New(t *testing.T) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	root := t.TempDir()
	projectSvc := project.NewService(sqlite.NewProjectRepository(db), nil)
	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)

	prov := provider.NewLocal(nil)
	scanner := discovery.NewScanner(sysexec.NewExecRunner(), discovery.DefaultConfig(root), nil)
	aggregator := alert.NewAggregator(nil, alert.DefaultDetectors(alert.Config{}, nil, prov, nil)...)
	engine := tracker.New(tracker.Config{}, scanner, projectSvc, activitySvc, prov, aggregator, nil)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects: projectSvc,
			Activity: activitySvc,
			Engine:   engine,
		},
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: 5 * time.Minute},
	)

	server := httptest.NewServer(transport.NewServer(transport.Options{
		Projects: projectSvc,
		Activity: activitySvc,
		Engine:   engine,
		MCP:      mcpHandler,
	}))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:   server,
		DB:       db,
		Root:     root,
		Engine:   engine,
		Projects: projectSvc,
	}
}

// WriteFile creates a file under the projects root.
func (ts *TestServer) WriteFile(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(ts.Root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

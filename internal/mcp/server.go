package mcp

import (
	"context"
	"io"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/projtrack/internal/alert"
	"github.com/rpggio/projtrack/internal/domain/activity"
	"github.com/rpggio/projtrack/internal/domain/project"
	"github.com/rpggio/projtrack/internal/tracker"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	List(ctx context.Context, sortKey string) ([]project.Project, error)
	FindByName(ctx context.Context, name string) (*project.Project, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Engine runs scans and alert passes.
type Engine interface {
	Scan(ctx context.Context) (*tracker.ScanReport, error)
	Alerts(ctx context.Context) ([]alert.Alert, error)
	Stats(ctx context.Context) (*tracker.Stats, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects ProjectService
	Activity ActivityService
	Engine   Engine
}

// Config contains server configuration.
type Config struct {
	Services Services
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "projtrack",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(sessionMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services, cfg.Logger)

	return server
}

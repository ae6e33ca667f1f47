package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/projtrack/internal/alert"
	"github.com/rpggio/projtrack/internal/domain/activity"
	"github.com/rpggio/projtrack/internal/domain/project"
	"github.com/rpggio/projtrack/internal/tracker"
)

// ProjectService defines project operations needed by the API.
type ProjectService interface {
	List(ctx context.Context, sortKey string) ([]project.Project, error)
	FindByName(ctx context.Context, name string) (*project.Project, error)
	Delete(ctx context.Context, id string) error
}

// ActivityService defines activity operations needed by the API.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Engine runs scans and alert passes.
type Engine interface {
	Scan(ctx context.Context) (*tracker.ScanReport, error)
	Alerts(ctx context.Context) ([]alert.Alert, error)
	Stats(ctx context.Context) (*tracker.Stats, error)
}

// Options configures the router.
type Options struct {
	Projects ProjectService
	Activity ActivityService
	Engine   Engine
	// MCP, when set, is mounted at /mcp.
	MCP    http.Handler
	Logger *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	projects ProjectService
	activity ActivityService
	engine   Engine
	logger   *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	srv := &Server{
		projects: opts.Projects,
		activity: opts.Activity,
		engine:   opts.Engine,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))

	r.Get("/health", srv.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", srv.handleListProjects)
		r.Get("/projects/{id}", srv.handleGetProject)
		r.Delete("/projects/{id}", srv.handleDeleteProject)
		r.Get("/alerts", srv.handleAlerts)
		r.Get("/stats", srv.handleStats)
		r.Post("/scan", srv.handleScan)
		r.Get("/activity", srv.handleActivity)
	})

	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
		r.Handle("/mcp/*", opts.MCP)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.List(r.Context(), r.URL.Query().Get("sort"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := r.URL.Query().Get("status")
	out := make([]project.Project, 0, len(projects))
	for _, p := range projects {
		if status != "" && !strings.EqualFold(string(p.Status), status) {
			continue
		}
		out = append(out, p)
	}
	WriteJSON(w, http.StatusOK, map[string]any{"projects": out, "count": len(out)})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.projects.FindByName(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.projects.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.engine.Alerts(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	severity := r.URL.Query().Get("severity")
	out := make([]alert.Alert, 0, len(alerts))
	for _, a := range alerts {
		if severity != "" && !strings.EqualFold(string(a.Severity), severity) {
			continue
		}
		out = append(out, a)
	}
	WriteJSON(w, http.StatusOK, map[string]any{"alerts": out, "count": len(out)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	report, err := s.engine.Scan(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := activity.ListActivityOptions{
		ProjectID: q.Get("project_id"),
		ScanID:    q.Get("scan_id"),
	}
	if t := q.Get("type"); t != "" {
		typ := activity.ActivityType(t)
		opts.ActivityType = &typ
	}
	for key, dst := range map[string]*int{"limit": &opts.Limit, "offset": &opts.Offset} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			WriteError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid "+key)
			return
		}
		*dst = n
	}

	entries, err := s.activity.GetRecentActivity(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []activity.ActivityEntry{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("api request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeDomainError(w, err)
}

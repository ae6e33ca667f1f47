// Package alert turns enriched project state into an ordered list of
// operator alerts.
package alert

import (
	"context"
	"io"
	"log/slog"
	"sort"

	"github.com/rpggio/projtrack/internal/domain/project"
	"github.com/rpggio/projtrack/internal/extract"
)

// Severity classifies how urgent an alert is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Rank orders severities, most urgent first. Unknown values sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

// Alert is one finding about one project.
type Alert struct {
	ProjectID   string   `json:"project_id"`
	ProjectName string   `json:"project_name"`
	Type        string   `json:"type"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	Details     string   `json:"details"`
}

// Project is a stored project plus the raw documents detectors inspect.
type Project struct {
	project.Project

	Todo      string
	HasTodo   bool
	Review    *extract.CodeReview
	IndexPath string
}

func (p *Project) alert(typ string, sev Severity, message, details string) Alert {
	return Alert{
		ProjectID:   p.ID,
		ProjectName: p.Name,
		Type:        typ,
		Severity:    sev,
		Message:     message,
		Details:     details,
	}
}

// Detector inspects the full project set for one kind of problem.
// Detectors share nothing but their input.
type Detector interface {
	Name() string
	Detect(ctx context.Context, projects []Project) []Alert
}

// Aggregator runs a fixed battery of detectors.
type Aggregator struct {
	detectors []Detector
	logger    *slog.Logger
}

// NewAggregator creates an aggregator over detectors, run in the given order.
func NewAggregator(logger *slog.Logger, detectors ...Detector) *Aggregator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Aggregator{detectors: detectors, logger: logger}
}

// Run concatenates every detector's output and returns it sorted.
func (a *Aggregator) Run(ctx context.Context, projects []Project) []Alert {
	alerts := []Alert{}
	for _, d := range a.detectors {
		if ctx.Err() != nil {
			break
		}
		found, ok := a.detect(ctx, d, projects)
		if !ok {
			// Retry one project at a time so a single bad project only
			// loses its own alerts.
			found = nil
			for i := range projects {
				one, _ := a.detect(ctx, d, projects[i:i+1])
				found = append(found, one...)
			}
		}
		a.logger.Debug("detector finished", "detector", d.Name(), "alerts", len(found))
		alerts = append(alerts, found...)
	}
	Sort(alerts)
	return alerts
}

// detect runs d and turns a panic into a warning and no output.
func (a *Aggregator) detect(ctx context.Context, d Detector, projects []Project) (found []Alert, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			id := ""
			if len(projects) == 1 {
				id = projects[0].ID
			}
			a.logger.Warn("detector panicked", "detector", d.Name(), "project", id, "panic", r)
			found, ok = nil, false
		}
	}()
	return d.Detect(ctx, projects), true
}

// Sort orders alerts by severity rank, then project name. Alerts that tie
// on both keep their emission order.
func Sort(alerts []Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := alerts[i].Severity.Rank(), alerts[j].Severity.Rank()
		if ri != rj {
			return ri < rj
		}
		return alerts[i].ProjectName < alerts[j].ProjectName
	})
}

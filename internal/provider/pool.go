package provider

import (
	"context"
	"sync"

	"github.com/rpggio/projtrack/internal/domain/project"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers caps concurrent health lookups.
const DefaultWorkers = 8

// Target identifies a project whose health should be fetched.
type Target struct {
	ProjectID string
	Path      string
}

// CollectHealth fetches health for every target with at most workers
// lookups in flight. Failed lookups are left out of the result.
func CollectHealth(ctx context.Context, p Provider, targets []Target, workers int) map[string]project.Health {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var (
		mu      sync.Mutex
		results = make(map[string]project.Health, len(targets))
		g       errgroup.Group
	)
	g.SetLimit(workers)

	for _, target := range targets {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			health, err := p.Health(ctx, target.Path)
			if err != nil {
				return nil
			}
			mu.Lock()
			results[target.ProjectID] = health
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

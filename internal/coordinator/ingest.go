package coordinator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/AaronLay10/SentientSignals/internal/errors"
	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

// ApplyReadings ingests a batch in parallel. A bad reading does not stop the
// others; every failure is returned joined. Readings not started before ctx
// is cancelled are reported with the context error.
func (c *Coordinator) ApplyReadings(ctx context.Context, readings []traffic.Reading) error {
	c.mu.RLock()
	workers := c.workers
	c.mu.RUnlock()

	errs := make([]error, len(readings))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, r := range readings {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = c.Ingest(r)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

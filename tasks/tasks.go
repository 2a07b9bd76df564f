// Package tasks runs the background loops of the service.
package tasks

import (
	"context"
	"time"

	"github.com/Permissionless-Software-Foundation/avax-dex/config"
	"github.com/Permissionless-Software-Foundation/avax-dex/log"
	"github.com/Permissionless-Software-Foundation/avax-dex/mail"
	"golang.org/x/sync/errgroup"
)

const traceInterval = 30 * time.Second

// Reaper removes Orders whose funds have been spent.
type Reaper interface {
	RemoveStaleOrders(ctx context.Context) (int, error)
}

// ServerTracer keeps the ledger server pool healthy.
type ServerTracer interface {
	TraceServers(ctx context.Context, interval time.Duration, urls func() []string) error
}

// Run starts the stale order sweep and the ledger server tracing. It
// returns when ctx is done or a loop fails.
func Run(ctx context.Context, r Reaper, t ServerTracer) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return Reap(ctx, r, config.GetReapInterval)
	})
	g.Go(func() error {
		defer mail.AlertIfErr()
		return t.TraceServers(ctx, traceInterval, config.GetRPCs)
	})

	return g.Wait()
}

// Reap sweeps stale Orders every interval until ctx is done. The interval
// is read before each sweep so config reloads apply.
func Reap(ctx context.Context, r Reaper, interval func() time.Duration) error {
	defer mail.AlertIfErr()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval()):
		}

		removed, err := r.RemoveStaleOrders(ctx)
		if err != nil {
			log.Errorf("Stale order sweep failed: %v", err)
			continue
		}
		if removed > 0 {
			log.Printf("Removed %d stale order(s)", removed)
		}
	}
}

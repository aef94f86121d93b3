package server

import (
	"context"
	"errors"
	"time"

	"github.com/kbadu/datashop/internal/errs"
)

const defaultPollInterval = 30 * time.Second

// PendingCountsControl polls the upstream pending-count endpoints on an
// interval and feeds the result through the notification feed. Polls are
// strictly sequential: an in-flight poll makes the next tick a no-op instead
// of letting a slow response regress the baseline.
func (srv *Server) PendingCountsControl(ctx context.Context) {
	interval := srv.config.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			signals, err := srv.feed.Poll(ctx, srv.store)
			if err != nil {
				if errors.Is(err, errs.ErrPollInProgress) {
					continue
				}
				srv.deps.Logger.Errorf("poll pending counts: %v", err)
				continue
			}

			if signals.Any() {
				// one combined alert per poll cycle, whatever the number of
				// categories that moved
				srv.deps.Logger.Infow("new pending items",
					"orders", signals.Orders,
					"topups", signals.Topups,
					"complaints", signals.Complaints,
				)
			}
		}
	}
}

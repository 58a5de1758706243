package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"auctionhouse/internal/services/auction"
	"auctionhouse/internal/store"
)

// Run starts the interval sweep loop: every tick, collect RUNNING auctions
// whose end time has passed and close them. The loop is the safety net behind
// the Redis expiry timer; a pass that overlaps a timer-driven sweep is
// harmless because the transition is idempotent. Cancellable between
// per-auction transitions via ctx.
func Run(ctx context.Context, st store.AuctionStore, svc auction.IAuctionService, interval time.Duration) {
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				sweepOnce(ctx, st, svc)
			}
		}
	}()
}

func sweepOnce(ctx context.Context, st store.AuctionStore, svc auction.IAuctionService) {
	now := time.Now().UTC()
	ids, err := st.ListExpiredActive(ctx, now)
	if err != nil {
		zap.L().Warn("sweeper.list", zap.Error(err))
		return
	}
	if len(ids) == 0 {
		return
	}
	if n := svc.SweepExpired(ctx, ids, now); n > 0 {
		zap.L().Info("sweeper.closed", zap.Int("count", n))
	}
}

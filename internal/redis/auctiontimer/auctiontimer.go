package auctiontimer

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"auctionhouse/internal/services/auction"
)

const timerKeyPrefix = "auc_t:"

// Timer arms one Redis key with a TTL per running auction. When the key
// expires, Run below picks up the keyspace notification and sweeps that
// auction immediately. Purely an acceleration: losing a notification only
// delays the close until the next interval sweep.
type Timer struct {
	rdc *redis.Client
}

var _ auction.ExpiryTimer = (*Timer)(nil)

func New(rdc *redis.Client) *Timer { return &Timer{rdc: rdc} }

func (t *Timer) Arm(ctx context.Context, auctionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return t.rdc.Set(ctx, timerKeyPrefix+auctionID, 1, ttl).Err()
}

func (t *Timer) Disarm(ctx context.Context, auctionID string) error {
	return t.rdc.Del(ctx, timerKeyPrefix+auctionID).Err()
}

// Run listens to key-expiry events and sweeps the matching auction.
// Run must be started once at service boot.
func Run(ctx context.Context, rdc *redis.Client, svc auction.IAuctionService) {
	_ = rdc.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err()
	ps := rdc.PSubscribe(ctx, "__keyevent@*__:expired")
	defer ps.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ps.Channel():
			if !ok {
				return
			}
			if !strings.HasPrefix(m.Payload, timerKeyPrefix) {
				continue
			}
			id := strings.TrimPrefix(m.Payload, timerKeyPrefix)
			svc.SweepExpired(ctx, []string{id}, time.Now().UTC())
		}
	}
}

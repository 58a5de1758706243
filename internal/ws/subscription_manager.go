package ws

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"auctionhouse/internal/broadcast/redisbroadcast"
)

// subscriptionManager guarantees that the process holds exactly one Redis
// subscription per auction events channel, no matter how many websocket
// clients join the same room.
type subscriptionManager struct {
	rdc  *redis.Client
	hub  *Hub
	mu   sync.Mutex
	subs map[string]*subEntry // auctionID -> subscription data
}

type subEntry struct {
	refCnt int
	cancel context.CancelFunc
}

func newSubscriptionManager(rdc *redis.Client, hub *Hub) *subscriptionManager {
	return &subscriptionManager{
		rdc:  rdc,
		hub:  hub,
		subs: make(map[string]*subEntry),
	}
}

// Subscribe ensures the process is subscribed to the auction's channel;
// subsequent calls for the same auction only increment the ref-counter.
func (sm *subscriptionManager) Subscribe(auctionID string) {
	sm.mu.Lock()
	if e, ok := sm.subs[auctionID]; ok {
		e.refCnt++
		sm.mu.Unlock()
		return
	}

	// First consumer: create the Redis SUB and the fan-out loop. Payloads
	// already carry the {"event":...,"body":...} envelope the clients expect,
	// so they are relayed verbatim.
	ctx, cancel := context.WithCancel(context.Background())
	ps := sm.rdc.Subscribe(ctx, redisbroadcast.ChannelFor(auctionID))

	sm.subs[auctionID] = &subEntry{refCnt: 1, cancel: cancel}
	sm.mu.Unlock()

	go func() {
		defer ps.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ps.Channel():
				if !ok { // Redis connection closed.
					return
				}
				sm.hub.Broadcast(auctionID, []byte(m.Payload))
			}
		}
	}()
}

// Unsubscribe decrements the ref-counter and tears the Redis SUB down when
// the last websocket client leaves the room.
func (sm *subscriptionManager) Unsubscribe(auctionID string) {
	sm.mu.Lock()
	e, ok := sm.subs[auctionID]
	if !ok {
		sm.mu.Unlock()
		return
	}
	e.refCnt--
	if e.refCnt > 0 {
		sm.mu.Unlock()
		return
	}
	delete(sm.subs, auctionID)
	sm.mu.Unlock()

	// Outside the lock: stop the fan-out goroutine.
	e.cancel()
}

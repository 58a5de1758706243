package redisbroadcast

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"auctionhouse/internal/broadcast"
)

const (
	channelPrefix = "auc:"
	channelSuffix = ":events"
)

// ChannelFor returns the pub/sub channel carrying one auction's events.
// The ws subscription manager subscribes to the same name.
func ChannelFor(auctionID string) string {
	return channelPrefix + auctionID + channelSuffix
}

type envelope struct {
	Event string `json:"event"`
	Body  any    `json:"body"`
}

// Publisher implements broadcast.Broadcaster over Redis pub/sub. Per-channel
// ordering matches publish order; delivery to slow subscribers is best-effort.
type Publisher struct {
	rdc *redis.Client
}

var _ broadcast.Broadcaster = (*Publisher)(nil)

func New(rdc *redis.Client) *Publisher { return &Publisher{rdc: rdc} }

func (p *Publisher) PublishBid(ctx context.Context, auctionID string, ev broadcast.AcceptedBid) error {
	return p.publish(ctx, auctionID, broadcast.EventBid, ev)
}

func (p *Publisher) PublishClosed(ctx context.Context, auctionID string, ev broadcast.AuctionClosed) error {
	return p.publish(ctx, auctionID, broadcast.EventClosed, ev)
}

func (p *Publisher) publish(ctx context.Context, auctionID, event string, body any) error {
	payload, err := json.Marshal(envelope{Event: event, Body: body})
	if err != nil {
		return err
	}
	return p.rdc.Publish(ctx, ChannelFor(auctionID), string(payload)).Err()
}

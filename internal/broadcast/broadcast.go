package broadcast

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Event names as they appear on the wire.
const (
	EventBid    = "auctions/bid"
	EventClosed = "auctions/closed"
)

// AcceptedBid is the published payload for one committed bid. Minimal by
// design: subscribers get what they need to render, no internal identifiers.
type AcceptedBid struct {
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	PlacedAt time.Time       `json:"timestamp"`
	Bidder   string          `json:"bidder"` // display name, not an account id
}

type AuctionClosed struct {
	Reason   string    `json:"reason"`
	ClosedAt time.Time `json:"closed_at"`
}

// Broadcaster publishes events on a per-auction channel. Delivery is
// at-least-once and fire-and-forget from the engine's point of view: a failed
// publish never rolls back the commit that produced it.
type Broadcaster interface {
	PublishBid(ctx context.Context, auctionID string, ev AcceptedBid) error
	PublishClosed(ctx context.Context, auctionID string, ev AuctionClosed) error
}

// Multi fans one event out to several transports.
type Multi []Broadcaster

var _ Broadcaster = Multi(nil)

func (m Multi) PublishBid(ctx context.Context, auctionID string, ev AcceptedBid) error {
	var errs []error
	for _, b := range m {
		if err := b.PublishBid(ctx, auctionID, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) PublishClosed(ctx context.Context, auctionID string, ev AuctionClosed) error {
	var errs []error
	for _, b := range m {
		if err := b.PublishClosed(ctx, auctionID, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

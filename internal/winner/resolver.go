package winner

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"auctionhouse/internal/models"
	"auctionhouse/internal/store"
)

var (
	ErrNotClosedYet = errors.New("auction is not closed yet")
	ErrNoBids       = errors.New("auction received no bids")
)

// Winner is the bidder holding the highest accepted bid of a closed auction.
type Winner struct {
	BidID    string          `json:"bid_id"`
	BidderID string          `json:"bidder_id"`
	Amount   decimal.Decimal `json:"amount"`
	PlacedAt time.Time       `json:"placed_at"`
}

// Resolver determines the winner of a closed auction from its bid history.
// Resolution is deterministic and idempotent: highest amount wins, ties go to
// the earliest bid. Because every accepted bid is strictly higher than the
// price before it, the result always matches the last history entry; tests
// hold that equivalence, the resolver does not assume it.
type Resolver struct {
	store store.AuctionStore
}

func NewResolver(st store.AuctionStore) *Resolver { return &Resolver{store: st} }

func (r *Resolver) Resolve(ctx context.Context, auctionID string) (*Winner, error) {
	a, err := r.store.Get(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.Status != models.StatusFinished {
		return nil, ErrNotClosedYet
	}
	if len(a.Bids) == 0 {
		return nil, ErrNoBids
	}

	best := a.Bids[0]
	for _, b := range a.Bids[1:] {
		if b.Amount.GreaterThan(best.Amount) {
			best = b
		}
	}
	return &Winner{
		BidID:    best.ID,
		BidderID: best.BidderID,
		Amount:   best.Amount,
		PlacedAt: best.PlacedAt,
	}, nil
}

package winner

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"auctionhouse/internal/models"
	"auctionhouse/internal/store"
	"auctionhouse/internal/store/memstore"
)

var baseTime = time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, st *memstore.Store, status models.Status, bids []models.Bid) {
	t.Helper()
	a := &models.Auction{
		ID:            "a1",
		SellerID:      "S",
		StartingPrice: decimal.NewFromInt(100),
		CurrentPrice:  decimal.NewFromInt(100),
		StartsAt:      baseTime.Add(-time.Hour),
		EndsAt:        baseTime,
		Status:        status,
		Bids:          bids,
	}
	if last := a.LastBid(); last != nil {
		a.CurrentPrice = last.Amount
		a.HighBidder = last.BidderID
	}
	require.NoError(t, st.Create(context.Background(), a))
}

func bid(id, bidder string, amount int64, at time.Time) models.Bid {
	return models.Bid{ID: id, AuctionID: "a1", BidderID: bidder, Amount: decimal.NewFromInt(amount), PlacedAt: at}
}

func TestResolve_NotClosedYet(t *testing.T) {
	st := memstore.New()
	seed(t, st, models.StatusRunning, nil)

	_, err := NewResolver(st).Resolve(context.Background(), "a1")
	require.ErrorIs(t, err, ErrNotClosedYet)
}

func TestResolve_NotFound(t *testing.T) {
	_, err := NewResolver(memstore.New()).Resolve(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestResolve_NoBids(t *testing.T) {
	st := memstore.New()
	seed(t, st, models.StatusFinished, nil)

	_, err := NewResolver(st).Resolve(context.Background(), "a1")
	require.ErrorIs(t, err, ErrNoBids)
}

func TestResolve_HighestWinsAndEqualsLastEntry(t *testing.T) {
	st := memstore.New()
	bids := []models.Bid{
		bid("b1", "A", 150, baseTime.Add(-3*time.Minute)),
		bid("b2", "B", 180, baseTime.Add(-2*time.Minute)),
		bid("b3", "C", 200, baseTime.Add(-time.Minute)),
	}
	seed(t, st, models.StatusFinished, bids)

	r := NewResolver(st)
	w, err := r.Resolve(context.Background(), "a1")
	require.NoError(t, err)
	require.Equal(t, "b3", w.BidID)
	require.Equal(t, "C", w.BidderID)
	require.True(t, w.Amount.Equal(decimal.NewFromInt(200)))

	// The winner is always the last history entry, because accepted amounts
	// strictly increase.
	require.Equal(t, bids[len(bids)-1].ID, w.BidID)

	// Idempotent.
	again, err := r.Resolve(context.Background(), "a1")
	require.NoError(t, err)
	require.Equal(t, w, again)
}

func TestResolve_TieBreaksToEarliest(t *testing.T) {
	// A tie cannot happen through the engine, but the resolver must still be
	// deterministic when handed one.
	st := memstore.New()
	seed(t, st, models.StatusFinished, []models.Bid{
		bid("b1", "A", 200, baseTime.Add(-2*time.Minute)),
		bid("b2", "B", 200, baseTime.Add(-time.Minute)),
	})

	w, err := NewResolver(st).Resolve(context.Background(), "a1")
	require.NoError(t, err)
	require.Equal(t, "b1", w.BidID)
	require.Equal(t, "A", w.BidderID)
}

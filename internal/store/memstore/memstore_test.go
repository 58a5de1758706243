package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"auctionhouse/internal/models"
	"auctionhouse/internal/store"
)

func newAuction(id string, endsAt time.Time) *models.Auction {
	price := decimal.NewFromInt(100)
	return &models.Auction{
		ID:            id,
		SellerID:      "seller1",
		StartingPrice: price,
		CurrentPrice:  price,
		StartsAt:      endsAt.Add(-time.Hour),
		EndsAt:        endsAt,
		Status:        models.StatusRunning,
	}
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := New()
	endsAt := time.Now().UTC().Add(time.Hour)

	require.NoError(t, s.Create(ctx, newAuction("a1", endsAt)))
	require.ErrorIs(t, s.Create(ctx, newAuction("a1", endsAt)), store.ErrDuplicateID)

	a, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, int64(1), a.Version)

	// Mutating the returned snapshot must not leak into the store.
	a.CurrentPrice = decimal.NewFromInt(999)
	a.Bids = append(a.Bids, models.Bid{ID: "x"})
	again, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	require.True(t, again.CurrentPrice.Equal(decimal.NewFromInt(100)))
	require.Empty(t, again.Bids)

	_, err = s.Get(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAppendBidCAS(t *testing.T) {
	ctx := context.Background()
	s := New()
	endsAt := time.Now().UTC().Add(time.Hour)
	require.NoError(t, s.Create(ctx, newAuction("a1", endsAt)))

	bid := models.Bid{ID: "b1", AuctionID: "a1", BidderID: "u1", Amount: decimal.NewFromInt(150), PlacedAt: time.Now().UTC()}
	require.NoError(t, s.AppendBid(ctx, "a1", bid, 1))

	// Stale version must fail and change nothing.
	stale := models.Bid{ID: "b2", AuctionID: "a1", BidderID: "u2", Amount: decimal.NewFromInt(160)}
	require.ErrorIs(t, s.AppendBid(ctx, "a1", stale, 1), store.ErrVersionConflict)
	require.ErrorIs(t, s.AppendBid(ctx, "missing", stale, 1), store.ErrNotFound)

	a, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, a.Bids, 1)
	require.Equal(t, int64(2), a.Version)
	require.True(t, a.CurrentPrice.Equal(decimal.NewFromInt(150)))
	require.Equal(t, "u1", a.HighBidder)
}

func TestCloseFreezesEndTime(t *testing.T) {
	ctx := context.Background()
	s := New()
	endsAt := time.Now().UTC().Add(time.Hour)
	require.NoError(t, s.Create(ctx, newAuction("a1", endsAt)))

	closedAt := endsAt.Add(-30 * time.Minute)
	require.NoError(t, s.Close(ctx, "a1", models.CloseReasonSeller, closedAt, 1))

	a, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, models.StatusFinished, a.Status)
	require.Equal(t, models.CloseReasonSeller, a.CloseReason)
	require.True(t, a.EndsAt.Equal(closedAt))

	// Closing again with the old version is a conflict, not a silent rewrite.
	require.ErrorIs(t, s.Close(ctx, "a1", models.CloseReasonExpired, closedAt, 1), store.ErrVersionConflict)
}

func TestCloseAfterExpiryKeepsStamp(t *testing.T) {
	ctx := context.Background()
	s := New()
	endsAt := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, s.Create(ctx, newAuction("a1", endsAt)))

	require.NoError(t, s.Close(ctx, "a1", models.CloseReasonExpired, time.Now().UTC(), 1))
	a, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	require.True(t, a.EndsAt.Equal(endsAt))
}

func TestListExpiredActive(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()

	require.NoError(t, s.Create(ctx, newAuction("past1", now.Add(-time.Minute))))
	require.NoError(t, s.Create(ctx, newAuction("past2", now.Add(-time.Hour))))
	require.NoError(t, s.Create(ctx, newAuction("future", now.Add(time.Hour))))
	require.NoError(t, s.Close(ctx, "past2", models.CloseReasonSeller, now, 1))

	ids, err := s.ListExpiredActive(ctx, now)
	require.NoError(t, err)
	require.Equal(t, []string{"past1"}, ids)
}

func TestListByStatus(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()

	require.NoError(t, s.Create(ctx, newAuction("a1", now.Add(time.Hour))))
	require.NoError(t, s.Create(ctx, newAuction("a2", now.Add(2*time.Hour))))
	require.NoError(t, s.Close(ctx, "a1", models.CloseReasonSeller, now, 1))

	running, err := s.List(ctx, models.StatusRunning, 10, 0)
	require.NoError(t, err)
	require.Len(t, running, 1)
	require.Equal(t, "a2", running[0].ID)

	all, err := s.List(ctx, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

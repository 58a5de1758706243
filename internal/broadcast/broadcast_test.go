package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeBroadcaster struct {
	bids   int
	closed int
	err    error
}

func (f *fakeBroadcaster) PublishBid(context.Context, string, AcceptedBid) error {
	f.bids++
	return f.err
}

func (f *fakeBroadcaster) PublishClosed(context.Context, string, AuctionClosed) error {
	f.closed++
	return f.err
}

func TestMultiPublishesToAll(t *testing.T) {
	a, b := &fakeBroadcaster{}, &fakeBroadcaster{}
	m := Multi{a, b}

	ev := AcceptedBid{ID: "b1", Amount: decimal.NewFromInt(150), PlacedAt: time.Now(), Bidder: "alice"}
	require.NoError(t, m.PublishBid(context.Background(), "a1", ev))
	require.NoError(t, m.PublishClosed(context.Background(), "a1", AuctionClosed{Reason: "EXPIRED"}))
	require.Equal(t, 1, a.bids)
	require.Equal(t, 1, b.bids)
	require.Equal(t, 1, a.closed)
	require.Equal(t, 1, b.closed)
}

func TestMultiKeepsGoingOnFailure(t *testing.T) {
	boom := errors.New("boom")
	a, b := &fakeBroadcaster{err: boom}, &fakeBroadcaster{}
	m := Multi{a, b}

	err := m.PublishBid(context.Background(), "a1", AcceptedBid{ID: "b1"})
	require.ErrorIs(t, err, boom)
	// The healthy transport still got the event.
	require.Equal(t, 1, b.bids)
}

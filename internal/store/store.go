package store

import (
	"context"
	"errors"
	"time"

	"auctionhouse/internal/models"
)

var (
	ErrNotFound    = errors.New("auction not found")
	ErrDuplicateID = errors.New("auction id already exists")

	// ErrVersionConflict means the record moved between Get and the write.
	// Safe to re-read and retry.
	ErrVersionConflict = errors.New("auction version conflict")
)

// AuctionStore owns the canonical auction records.
//
// Get returns a private snapshot (ordered bid history included) together with
// the version counter read at the same moment. AppendBid and Close are
// compare-and-swap writes: they commit atomically if and only if the stored
// version still equals expectedVersion, otherwise they fail with
// ErrVersionConflict and change nothing.
type AuctionStore interface {
	Create(ctx context.Context, a *models.Auction) error
	Get(ctx context.Context, id string) (*models.Auction, error)

	// AppendBid appends the bid, advances CurrentPrice/HighBidder to it and
	// bumps the version, all in one atomic step.
	AppendBid(ctx context.Context, auctionID string, bid models.Bid, expectedVersion int64) error

	// Close transitions RUNNING -> FINISHED. The stored ends_at is frozen to
	// closedAt when the auction is closed before its scheduled end.
	Close(ctx context.Context, auctionID string, reason models.CloseReason, closedAt time.Time, expectedVersion int64) error

	// ListExpiredActive returns ids of RUNNING auctions whose end time has
	// passed at the given instant. Sweep candidates.
	ListExpiredActive(ctx context.Context, now time.Time) ([]string, error)

	List(ctx context.Context, status models.Status, limit, offset int) ([]models.Auction, error)
}

package pgstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"auctionhouse/internal/models"
	"auctionhouse/internal/store"
)

var baseTime = time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestGet(t *testing.T) {
	s, mock := newMock(t)

	auctionRows := sqlmock.NewRows([]string{
		"id", "seller_id", "item", "starting_price", "current_price",
		"starts_at", "ends_at", "status", "close_reason", "high_bidder", "version",
	}).AddRow("a1", "S", "vintage clock", "100", "150",
		baseTime.Add(-time.Hour), baseTime, "RUNNING", "", "A", int64(2))
	mock.ExpectQuery("FROM auctions WHERE id").
		WithArgs("a1").
		WillReturnRows(auctionRows)

	bidRows := sqlmock.NewRows([]string{"id", "auction_id", "bidder_id", "amount", "placed_at"}).
		AddRow("b1", "a1", "A", "150", baseTime.Add(-time.Minute))
	mock.ExpectQuery("FROM bids WHERE auction_id").
		WithArgs("a1").
		WillReturnRows(bidRows)

	a, err := s.Get(context.Background(), "a1")
	require.NoError(t, err)
	require.Equal(t, "a1", a.ID)
	require.Equal(t, models.StatusRunning, a.Status)
	require.Equal(t, int64(2), a.Version)
	require.True(t, a.CurrentPrice.Equal(decimal.NewFromInt(150)))
	require.Len(t, a.Bids, 1)
	require.Equal(t, "A", a.Bids[0].BidderID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("FROM auctions WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendBid(t *testing.T) {
	s, mock := newMock(t)
	bid := models.Bid{
		ID: "b1", AuctionID: "a1", BidderID: "A",
		Amount: decimal.NewFromInt(150), PlacedAt: baseTime,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE auctions").
		WithArgs(bid.Amount, "A", "a1", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bids").
		WithArgs("b1", "a1", "A", bid.Amount, baseTime).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, s.AppendBid(context.Background(), "a1", bid, 1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendBid_VersionConflict(t *testing.T) {
	s, mock := newMock(t)
	bid := models.Bid{ID: "b1", AuctionID: "a1", BidderID: "A", Amount: decimal.NewFromInt(150), PlacedAt: baseTime}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE auctions").
		WithArgs(bid.Amount, "A", "a1", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM auctions").
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	err := s.AppendBid(context.Background(), "a1", bid, 1)
	require.ErrorIs(t, err, store.ErrVersionConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendBid_NotFound(t *testing.T) {
	s, mock := newMock(t)
	bid := models.Bid{ID: "b1", AuctionID: "gone", BidderID: "A", Amount: decimal.NewFromInt(150), PlacedAt: baseTime}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE auctions").
		WithArgs(bid.Amount, "A", "gone", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM auctions").
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := s.AppendBid(context.Background(), "gone", bid, 1)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClose(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec("UPDATE auctions").
		WithArgs(models.StatusFinished, models.CloseReasonSeller, baseTime, "a1", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Close(context.Background(), "a1", models.CloseReasonSeller, baseTime, 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListExpiredActive(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery("SELECT id FROM auctions WHERE status").
		WithArgs(models.StatusRunning, baseTime).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a1").AddRow("a2"))

	ids, err := s.ListExpiredActive(context.Background(), baseTime)
	require.NoError(t, err)
	require.Equal(t, []string{"a1", "a2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

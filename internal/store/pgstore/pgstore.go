package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"auctionhouse/internal/models"
	"auctionhouse/internal/store"
)

// Store is the Postgres store.AuctionStore. Optimistic concurrency: every
// write is guarded by "WHERE version = $n"; zero rows affected on an existing
// row means another writer got there first.
type Store struct {
	db *sql.DB
}

var _ store.AuctionStore = (*Store)(nil)

func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Create(ctx context.Context, a *models.Auction) error {
	version := a.Version
	if version == 0 {
		version = 1
	}
	const q = `
	  INSERT INTO auctions (id, seller_id, item, starting_price, current_price,
	                        starts_at, ends_at, status, close_reason, high_bidder, version)
	       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '', '', $9)
	  ON CONFLICT (id) DO NOTHING`
	res, err := s.db.ExecContext(ctx, q,
		a.ID, a.SellerID, a.Item, a.StartingPrice, a.CurrentPrice,
		a.StartsAt, a.EndsAt, a.Status, version,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrDuplicateID
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.Auction, error) {
	const q = `SELECT id, seller_id, item, starting_price, current_price,
	                  starts_at, ends_at, status, close_reason, coalesce(high_bidder,''), version
	             FROM auctions WHERE id = $1`
	a := &models.Auction{}
	var reason string
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.SellerID, &a.Item, &a.StartingPrice, &a.CurrentPrice,
		&a.StartsAt, &a.EndsAt, &a.Status, &reason, &a.HighBidder, &a.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.CloseReason = models.CloseReason(reason)

	const bq = `SELECT id, auction_id, bidder_id, amount, placed_at
	              FROM bids WHERE auction_id = $1 ORDER BY seq`
	rows, err := s.db.QueryContext(ctx, bq, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var b models.Bid
		if err := rows.Scan(&b.ID, &b.AuctionID, &b.BidderID, &b.Amount, &b.PlacedAt); err != nil {
			return nil, err
		}
		a.Bids = append(a.Bids, b)
	}
	return a, rows.Err()
}

func (s *Store) AppendBid(ctx context.Context, auctionID string, bid models.Bid, expectedVersion int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const upd = `UPDATE auctions
	                SET current_price = $1, high_bidder = $2, version = version + 1
	              WHERE id = $3 AND version = $4`
	res, err := tx.ExecContext(ctx, upd, bid.Amount, bid.BidderID, auctionID, expectedVersion)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return s.missOrConflict(ctx, auctionID)
	}

	const ins = `INSERT INTO bids (id, auction_id, bidder_id, amount, placed_at)
	             VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, ins, bid.ID, auctionID, bid.BidderID, bid.Amount, bid.PlacedAt); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Close(ctx context.Context, auctionID string, reason models.CloseReason, closedAt time.Time, expectedVersion int64) error {
	const q = `UPDATE auctions
	              SET status = $1, close_reason = $2,
	                  ends_at = LEAST(ends_at, $3::timestamptz),
	                  version = version + 1
	            WHERE id = $4 AND version = $5`
	res, err := s.db.ExecContext(ctx, q,
		models.StatusFinished, reason, closedAt, auctionID, expectedVersion)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return s.missOrConflict(ctx, auctionID)
	}
	return nil
}

func (s *Store) ListExpiredActive(ctx context.Context, now time.Time) ([]string, error) {
	const q = `SELECT id FROM auctions WHERE status = $1 AND ends_at <= $2`
	rows, err := s.db.QueryContext(ctx, q, models.StatusRunning, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) List(ctx context.Context, status models.Status, limit, offset int) ([]models.Auction, error) {
	if limit == 0 {
		limit = 10
	}
	var (
		rows *sql.Rows
		err  error
	)
	base := `SELECT id, seller_id, item, starting_price, current_price,
	                starts_at, ends_at, status, close_reason, coalesce(high_bidder,''), version
	           FROM auctions`
	if status != "" {
		rows, err = s.db.QueryContext(ctx, base+` WHERE status = $1 ORDER BY ends_at DESC LIMIT $2 OFFSET $3`,
			status, limit, offset)
	} else {
		rows, err = s.db.QueryContext(ctx, base+` ORDER BY ends_at DESC LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]models.Auction, 0, limit)
	for rows.Next() {
		var a models.Auction
		var reason string
		if err := rows.Scan(&a.ID, &a.SellerID, &a.Item, &a.StartingPrice, &a.CurrentPrice,
			&a.StartsAt, &a.EndsAt, &a.Status, &reason, &a.HighBidder, &a.Version); err != nil {
			return nil, err
		}
		a.CloseReason = models.CloseReason(reason)
		list = append(list, a)
	}
	return list, rows.Err()
}

// missOrConflict disambiguates a zero-row CAS write.
func (s *Store) missOrConflict(ctx context.Context, auctionID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM auctions WHERE id = $1`, auctionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	return store.ErrVersionConflict
}

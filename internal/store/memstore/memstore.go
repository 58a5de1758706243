package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"auctionhouse/internal/models"
	"auctionhouse/internal/store"
)

// Store is an in-memory store.AuctionStore. It backs the engine tests and
// single-node embedded deployments; the CAS contract is identical to pgstore.
type Store struct {
	mu       sync.RWMutex
	auctions map[string]*models.Auction
}

var _ store.AuctionStore = (*Store)(nil)

func New() *Store {
	return &Store{auctions: make(map[string]*models.Auction)}
}

func (s *Store) Create(_ context.Context, a *models.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[a.ID]; ok {
		return store.ErrDuplicateID
	}
	cp := a.Clone()
	if cp.Version == 0 {
		cp.Version = 1
	}
	s.auctions[a.ID] = cp
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a.Clone(), nil
}

func (s *Store) AppendBid(_ context.Context, auctionID string, bid models.Bid, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return store.ErrNotFound
	}
	if a.Version != expectedVersion {
		return store.ErrVersionConflict
	}
	a.Bids = append(a.Bids, bid)
	a.CurrentPrice = bid.Amount
	a.HighBidder = bid.BidderID
	a.Version++
	return nil
}

func (s *Store) Close(_ context.Context, auctionID string, reason models.CloseReason, closedAt time.Time, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return store.ErrNotFound
	}
	if a.Version != expectedVersion {
		return store.ErrVersionConflict
	}
	a.Status = models.StatusFinished
	a.CloseReason = reason
	if closedAt.Before(a.EndsAt) {
		a.EndsAt = closedAt
	}
	a.Version++
	return nil
}

func (s *Store) ListExpiredActive(_ context.Context, now time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, a := range s.auctions {
		if a.Status == models.StatusRunning && !now.Before(a.EndsAt) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) List(_ context.Context, status models.Status, limit, offset int) ([]models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit == 0 {
		limit = 10
	}
	all := make([]*models.Auction, 0, len(s.auctions))
	for _, a := range s.auctions {
		if status != "" && a.Status != status {
			continue
		}
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].EndsAt.After(all[j].EndsAt) })

	list := make([]models.Auction, 0, limit)
	for i := offset; i < len(all) && len(list) < limit; i++ {
		list = append(list, *all[i].Clone())
	}
	return list, nil
}

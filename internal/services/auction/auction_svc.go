package auction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"auctionhouse/internal/broadcast"
	"auctionhouse/internal/expiry"
	"auctionhouse/internal/models"
	"auctionhouse/internal/store"
	"auctionhouse/internal/winner"
)

var (
	ErrSelfBid        = errors.New("seller cannot bid on own auction")
	ErrNotOwner       = errors.New("only the seller may close this auction")
	ErrAuctionClosed  = errors.New("auction closed")
	ErrAuctionExpired = errors.New("auction expired")
	ErrBidTooLow      = errors.New("bid must be strictly higher than current price")
	ErrConsecutiveBid = errors.New("bidder already holds the highest bid")
	ErrEndsInPast     = errors.New("ends_at must be in the future")

	// ErrConcurrencyConflict surfaces after the bounded in-engine retries are
	// exhausted. Transient: the whole call is safe to retry from scratch.
	ErrConcurrencyConflict = errors.New("concurrent writes on this auction, retry")
)

type CreateAuctionParams struct {
	ID            string
	SellerID      string
	Item          string
	StartingPrice decimal.Decimal
	EndsAt        time.Time
}

type IAuctionService interface {
	CreateAuction(ctx context.Context, p CreateAuctionParams, now time.Time) (*models.Auction, error)
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal, now time.Time) (*models.Bid, error)
	CloseAuction(ctx context.Context, auctionID, ownerID string, now time.Time) error
	SweepExpired(ctx context.Context, candidateIDs []string, now time.Time) int
	Winner(ctx context.Context, auctionID string) (*winner.Winner, error)
	GetAuction(ctx context.Context, id string) (*models.Auction, error)
	ListAuctions(ctx context.Context, status string, limit, offset int) ([]models.Auction, error)
}

// ExpiryTimer arms a wake-up for the instant an auction ends, so expiry is
// swept promptly instead of waiting for the next interval pass. Best-effort;
// the interval sweeper is the safety net.
type ExpiryTimer interface {
	Arm(ctx context.Context, auctionID string, ttl time.Duration) error
	Disarm(ctx context.Context, auctionID string) error
}

// WinnerNotifier is handed the resolved winner exactly when an auction
// transitions to FINISHED with at least one bid. The downstream flow
// (notification, payment link) is external; re-triggering is harmless because
// resolution is idempotent.
type WinnerNotifier interface {
	AuctionWon(ctx context.Context, auctionID string, w winner.Winner)
}

// DisplayNameResolver maps an opaque bidder id to the name shown in broadcast
// events. The identity layer behind it is external.
type DisplayNameResolver interface {
	DisplayName(ctx context.Context, bidderID string) string
}

type auctionService struct {
	store         store.AuctionStore
	bc            broadcast.Broadcaster
	resolver      *winner.Resolver
	timer         ExpiryTimer
	notifier      WinnerNotifier
	names         DisplayNameResolver
	commitRetries int
}

var _ IAuctionService = (*auctionService)(nil)

// NewAuctionService wires the bid engine. timer, notifier and names may be
// nil; no-op defaults are used. commitRetries bounds how often a single call
// re-reads and re-validates after losing a version race.
func NewAuctionService(st store.AuctionStore, bc broadcast.Broadcaster,
	timer ExpiryTimer, notifier WinnerNotifier, names DisplayNameResolver,
	commitRetries int) IAuctionService {

	if commitRetries < 1 {
		commitRetries = 3
	}
	if timer == nil {
		timer = nopTimer{}
	}
	if notifier == nil {
		notifier = logNotifier{}
	}
	if names == nil {
		names = identityNames{}
	}
	return &auctionService{
		store:         st,
		bc:            bc,
		resolver:      winner.NewResolver(st),
		timer:         timer,
		notifier:      notifier,
		names:         names,
		commitRetries: commitRetries,
	}
}

func (svc *auctionService) CreateAuction(ctx context.Context, p CreateAuctionParams, now time.Time) (*models.Auction, error) {
	if !p.EndsAt.After(now) {
		return nil, ErrEndsInPast
	}
	a := &models.Auction{
		ID:            p.ID,
		SellerID:      p.SellerID,
		Item:          p.Item,
		StartingPrice: p.StartingPrice,
		CurrentPrice:  p.StartingPrice,
		StartsAt:      now,
		EndsAt:        p.EndsAt,
		Status:        models.StatusRunning,
		Version:       1,
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := svc.store.Create(ctx, a); err != nil {
		return nil, err
	}
	if err := svc.timer.Arm(ctx, a.ID, p.EndsAt.Sub(now)); err != nil {
		zap.L().Warn("auction.arm_timer", zap.String("auction_id", a.ID), zap.Error(err))
	}
	return a, nil
}

// PlaceBid validates and conditionally commits one bid. Every attempt
// re-reads current state; nothing is cached across requests. Preconditions
// run in a fixed order and the first failure wins.
func (svc *auctionService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal, now time.Time) (*models.Bid, error) {
	for attempt := 0; attempt < svc.commitRetries; attempt++ {
		a, err := svc.store.Get(ctx, auctionID)
		if err != nil {
			return nil, err
		}

		if a.SellerID == bidderID {
			return nil, ErrSelfBid
		}
		if a.Status == models.StatusRunning && expiry.IsExpired(a.EndsAt, now) {
			// Bid arrived after the end time but before any sweep: close here,
			// exactly as the sweeper would, then reject.
			err := svc.store.Close(ctx, a.ID, models.CloseReasonExpired, now, a.Version)
			if errors.Is(err, store.ErrVersionConflict) {
				continue
			}
			if err != nil {
				return nil, err
			}
			svc.afterClose(ctx, a.ID, models.CloseReasonExpired, a.EndsAt)
			return nil, ErrAuctionExpired
		}
		if a.Status != models.StatusRunning {
			return nil, ErrAuctionClosed
		}
		if amount.Sign() <= 0 || amount.LessThanOrEqual(a.CurrentPrice) {
			return nil, ErrBidTooLow
		}
		if last := a.LastBid(); last != nil && last.BidderID == bidderID {
			return nil, ErrConsecutiveBid
		}

		bid := models.Bid{
			ID:        uuid.NewString(),
			AuctionID: auctionID,
			BidderID:  bidderID,
			Amount:    amount,
			PlacedAt:  now,
		}
		err = svc.store.AppendBid(ctx, auctionID, bid, a.Version)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		svc.publishBid(ctx, &bid)
		return &bid, nil
	}
	return nil, ErrConcurrencyConflict
}

// CloseAuction is the seller's explicit early close.
func (svc *auctionService) CloseAuction(ctx context.Context, auctionID, ownerID string, now time.Time) error {
	for attempt := 0; attempt < svc.commitRetries; attempt++ {
		a, err := svc.store.Get(ctx, auctionID)
		if err != nil {
			return err
		}
		if a.SellerID != ownerID {
			return ErrNotOwner
		}
		if a.Status != models.StatusRunning {
			return ErrAuctionClosed
		}

		err = svc.store.Close(ctx, auctionID, models.CloseReasonSeller, now, a.Version)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return err
		}
		svc.afterClose(ctx, auctionID, models.CloseReasonSeller, now)
		return nil
	}
	return ErrConcurrencyConflict
}

// SweepExpired transitions every still-RUNNING candidate past its end time to
// FINISHED. Idempotent and re-entrant; already-closed candidates are no-ops.
// Returns how many auctions this pass actually closed.
func (svc *auctionService) SweepExpired(ctx context.Context, candidateIDs []string, now time.Time) int {
	closed := 0
	for _, id := range candidateIDs {
		if ctx.Err() != nil {
			return closed
		}
		ok, err := svc.sweepOne(ctx, id, now)
		if err != nil {
			zap.L().Warn("auction.sweep", zap.String("auction_id", id), zap.Error(err))
			continue
		}
		if ok {
			closed++
		}
	}
	return closed
}

func (svc *auctionService) sweepOne(ctx context.Context, auctionID string, now time.Time) (bool, error) {
	for attempt := 0; attempt < svc.commitRetries; attempt++ {
		a, err := svc.store.Get(ctx, auctionID)
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if a.Status != models.StatusRunning || !expiry.IsExpired(a.EndsAt, now) {
			return false, nil
		}

		err = svc.store.Close(ctx, auctionID, models.CloseReasonExpired, now, a.Version)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return false, err
		}
		svc.afterClose(ctx, auctionID, models.CloseReasonExpired, a.EndsAt)
		return true, nil
	}
	return false, ErrConcurrencyConflict
}

func (svc *auctionService) Winner(ctx context.Context, auctionID string) (*winner.Winner, error) {
	return svc.resolver.Resolve(ctx, auctionID)
}

func (svc *auctionService) GetAuction(ctx context.Context, id string) (*models.Auction, error) {
	return svc.store.Get(ctx, id)
}

func (svc *auctionService) ListAuctions(ctx context.Context, status string, limit, offset int) ([]models.Auction, error) {
	return svc.store.List(ctx, models.Status(status), limit, offset)
}

// publishBid runs strictly after the commit. Accept-then-notify: failures are
// logged and never undo the bid.
func (svc *auctionService) publishBid(ctx context.Context, bid *models.Bid) {
	ev := broadcast.AcceptedBid{
		ID:       bid.ID,
		Amount:   bid.Amount,
		PlacedAt: bid.PlacedAt,
		Bidder:   svc.names.DisplayName(ctx, bid.BidderID),
	}
	if err := svc.bc.PublishBid(ctx, bid.AuctionID, ev); err != nil {
		zap.L().Warn("auction.publish_bid", zap.String("auction_id", bid.AuctionID), zap.Error(err))
	}
}

// afterClose runs the post-transition side effects: disarm the expiry timer,
// publish the closed event, hand the winner to the external trigger.
func (svc *auctionService) afterClose(ctx context.Context, auctionID string, reason models.CloseReason, closedAt time.Time) {
	if err := svc.timer.Disarm(ctx, auctionID); err != nil {
		zap.L().Debug("auction.disarm_timer", zap.String("auction_id", auctionID), zap.Error(err))
	}
	ev := broadcast.AuctionClosed{Reason: string(reason), ClosedAt: closedAt}
	if err := svc.bc.PublishClosed(ctx, auctionID, ev); err != nil {
		zap.L().Warn("auction.publish_closed", zap.String("auction_id", auctionID), zap.Error(err))
	}

	w, err := svc.resolver.Resolve(ctx, auctionID)
	if errors.Is(err, winner.ErrNoBids) {
		return
	}
	if err != nil {
		zap.L().Warn("auction.resolve_winner", zap.String("auction_id", auctionID), zap.Error(err))
		return
	}
	svc.notifier.AuctionWon(ctx, auctionID, *w)
}

type nopTimer struct{}

func (nopTimer) Arm(context.Context, string, time.Duration) error { return nil }
func (nopTimer) Disarm(context.Context, string) error             { return nil }

type logNotifier struct{}

func (logNotifier) AuctionWon(_ context.Context, auctionID string, w winner.Winner) {
	zap.L().Info("auction.won",
		zap.String("auction_id", auctionID),
		zap.String("bidder_id", w.BidderID),
		zap.String("amount", w.Amount.String()),
	)
}

type identityNames struct{}

func (identityNames) DisplayName(_ context.Context, bidderID string) string { return bidderID }

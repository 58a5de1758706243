package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusRunning  Status = "RUNNING"
	StatusFinished Status = "FINISHED"
)

// CloseReason records which path moved an auction to FINISHED.
type CloseReason string

const (
	CloseReasonExpired CloseReason = "EXPIRED"
	CloseReasonSeller  CloseReason = "SELLER_CLOSED"
)

// Bid is one accepted offer. Immutable once created.
type Bid struct {
	ID        string
	AuctionID string
	BidderID  string
	Amount    decimal.Decimal
	PlacedAt  time.Time
}

// Auction is the canonical record of one lot. CurrentPrice never decreases,
// Bids is append-only in chronological order, and HighBidder mirrors the
// bidder of the last entry in Bids. Version moves on every committed write.
type Auction struct {
	ID            string
	SellerID      string
	Item          string
	StartingPrice decimal.Decimal
	CurrentPrice  decimal.Decimal
	StartsAt      time.Time
	EndsAt        time.Time
	Status        Status
	CloseReason   CloseReason
	HighBidder    string
	Bids          []Bid
	Version       int64
}

// LastBid returns the most recent accepted bid, or nil when there is none.
func (a *Auction) LastBid() *Bid {
	if len(a.Bids) == 0 {
		return nil
	}
	return &a.Bids[len(a.Bids)-1]
}

// Clone returns a deep copy so callers can never alias store-owned state.
func (a *Auction) Clone() *Auction {
	cp := *a
	cp.Bids = make([]Bid, len(a.Bids))
	copy(cp.Bids, a.Bids)
	return &cp
}

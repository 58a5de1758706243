package auctionhandler

import (
	"time"

	"github.com/shopspring/decimal"

	"auctionhouse/internal/models"
)

type CreateAuctionBody struct {
	SellerID      string          `json:"seller_id"      binding:"required" example:"seller123"`
	Item          string          `json:"item"           binding:"required" example:"vintage clock"`
	StartingPrice decimal.Decimal `json:"starting_price" binding:"required" example:"100"`
	EndsAt        time.Time       `json:"ends_at"        binding:"required" example:"2026-08-27T16:05:05Z"`
} // @name CreateAuctionRequest

type PlaceBidBody struct {
	BidderID string          `json:"bidder_id" binding:"required" example:"user123"`
	Amount   decimal.Decimal `json:"amount"    binding:"required" example:"150"`
} // @name PlaceBidRequest

type CloseAuctionBody struct {
	SellerID string `json:"seller_id" binding:"required" example:"seller123"`
} // @name CloseAuctionRequest

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse

type ListAuctionsQuery struct {
	Status string `form:"status"  binding:"omitempty,oneof=RUNNING FINISHED"`
	Limit  int    `form:"limit,default=10"  binding:"gte=0,lte=100"`
	Offset int    `form:"offset,default=0"  binding:"gte=0"`
} // @name ListAuctionsQuery

type BidDTO struct {
	ID       string          `json:"id"`
	BidderID string          `json:"bidder_id"`
	Amount   decimal.Decimal `json:"amount"`
	PlacedAt time.Time       `json:"placed_at"`
} // @name Bid

type AuctionDTO struct {
	ID            string          `json:"id"`
	SellerID      string          `json:"seller_id"`
	Item          string          `json:"item"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	StartsAt      time.Time       `json:"starts_at" example:"2026-08-27T16:05:05Z"`
	EndsAt        time.Time       `json:"ends_at"   example:"2026-08-27T16:05:05Z"`
	Status        string          `json:"status"    example:"RUNNING"`
	CloseReason   string          `json:"close_reason,omitempty"`
	HighBidder    string          `json:"high_bidder,omitempty"`
	Bids          []BidDTO        `json:"bids,omitempty"`
} // @name Auction

func toDTO(a *models.Auction, withBids bool) AuctionDTO {
	dto := AuctionDTO{
		ID:            a.ID,
		SellerID:      a.SellerID,
		Item:          a.Item,
		StartingPrice: a.StartingPrice,
		CurrentPrice:  a.CurrentPrice,
		StartsAt:      a.StartsAt,
		EndsAt:        a.EndsAt,
		Status:        string(a.Status),
		CloseReason:   string(a.CloseReason),
		HighBidder:    a.HighBidder,
	}
	if withBids {
		dto.Bids = make([]BidDTO, 0, len(a.Bids))
		for _, b := range a.Bids {
			dto.Bids = append(dto.Bids, BidDTO{
				ID:       b.ID,
				BidderID: b.BidderID,
				Amount:   b.Amount,
				PlacedAt: b.PlacedAt,
			})
		}
	}
	return dto
}

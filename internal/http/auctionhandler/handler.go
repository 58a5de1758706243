package auctionhandler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"auctionhouse/internal/services/auction"
	"auctionhouse/internal/store"
	"auctionhouse/internal/winner"
)

type Handler struct {
	svc auction.IAuctionService
}

func New(svc auction.IAuctionService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/auctions", h.list)
	r.GET("/auctions/:id", h.info)
	r.GET("/auctions/:id/winner", h.winner)
	r.POST("/auctions", h.create)
	r.POST("/auctions/:id/bid", h.bid)
	r.POST("/auctions/:id/close", h.close)
}

// @Summary		Create an auction
// @Description	Seller lists an item; the auction starts immediately and runs until ends_at.
// @Tags			Auctions
// @Param			body	body	CreateAuctionBody	true	"Auction payload"
// @Success		201	{object}	AuctionDTO
// @Failure		400	{object}	ErrorResponse
// @Router			/auctions [post]
func (h *Handler) create(ginCtx *gin.Context) {
	var body CreateAuctionBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}
	if body.StartingPrice.Sign() < 0 {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: "starting_price must not be negative"})
		return
	}

	a, err := h.svc.CreateAuction(ginCtx.Request.Context(), auction.CreateAuctionParams{
		SellerID:      body.SellerID,
		Item:          body.Item,
		StartingPrice: body.StartingPrice,
		EndsAt:        body.EndsAt.UTC(),
	}, time.Now().UTC())
	if err != nil {
		ginCtx.JSON(statusFor(err), &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusCreated, toDTO(a, false))
}

// @Summary		Get auction details
// @Description	Returns full information about a single auction, bid history included.
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"	default(auc123)
// @Success		200	{object}	AuctionDTO
// @Failure		404	{object}	ErrorResponse
// @Router			/auctions/{id} [get]
func (h *Handler) info(ginCtx *gin.Context) {
	a, err := h.svc.GetAuction(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		ginCtx.JSON(statusFor(err), &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, toDTO(a, true))
}

// @Summary		List auctions
// @Description	Retrieves a paginated list of auctions, optionally filtered by status.
// @Tags			Auctions
// @Param			status	query		string	false	"Status filter"			Enums(RUNNING,FINISHED)
// @Param			limit	query		int		false	"Max results (0-100)"	minimum(0)	maximum(100)	default(10)
// @Param			offset	query		int		false	"Offset for pagination"	minimum(0)	default(0)
// @Success		200		{array}		AuctionDTO
// @Failure		400		{object}	ErrorResponse
// @Failure		500		{object}	ErrorResponse
// @Router			/auctions [get]
func (h *Handler) list(ginCtx *gin.Context) {
	var q ListAuctionsQuery
	if err := ginCtx.ShouldBindQuery(&q); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}
	auctions, err := h.svc.ListAuctions(ginCtx.Request.Context(), q.Status, q.Limit, q.Offset)
	if err != nil {
		ginCtx.JSON(http.StatusInternalServerError, &ErrorResponse{Error: err.Error()})
		return
	}
	out := make([]AuctionDTO, 0, len(auctions))
	for i := range auctions {
		out = append(out, toDTO(&auctions[i], false))
	}
	ginCtx.JSON(http.StatusOK, out)
}

// @Summary		Place a bid
// @Description	Bidder places a bid strictly higher than the current price. The transport rejects non-positive amounts as a fast path; the engine re-validates regardless.
// @Tags			Auctions
// @Param			id		path	string			true	"Auction ID"	default(auc123)
// @Param			body	body	PlaceBidBody	true	"Bid payload"
// @Success		202	{object}	BidDTO
// @Failure		400	{object}	ErrorResponse
// @Failure		403	{object}	ErrorResponse
// @Failure		409	{object}	ErrorResponse
// @Router			/auctions/{id}/bid [post]
func (h *Handler) bid(ginCtx *gin.Context) {
	var body PlaceBidBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}
	if body.Amount.Sign() <= 0 {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: "amount must be positive"})
		return
	}

	bid, err := h.svc.PlaceBid(ginCtx.Request.Context(),
		ginCtx.Param("id"),
		body.BidderID,
		body.Amount,
		time.Now().UTC(),
	)
	if err != nil {
		ginCtx.JSON(statusFor(err), &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusAccepted, BidDTO{
		ID:       bid.ID,
		BidderID: bid.BidderID,
		Amount:   bid.Amount,
		PlacedAt: bid.PlacedAt,
	})
}

// @Summary		Close an auction early
// @Description	Seller closes their own auction before its end time.
// @Tags			Auctions
// @Param			id		path	string				true	"Auction ID"	default(auc123)
// @Param			body	body	CloseAuctionBody	true	"Owner payload"
// @Success		202
// @Failure		403	{object}	ErrorResponse
// @Failure		409	{object}	ErrorResponse
// @Router			/auctions/{id}/close [post]
func (h *Handler) close(ginCtx *gin.Context) {
	var body CloseAuctionBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	err := h.svc.CloseAuction(ginCtx.Request.Context(), ginCtx.Param("id"), body.SellerID, time.Now().UTC())
	if err != nil {
		ginCtx.JSON(statusFor(err), &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.Status(http.StatusAccepted)
}

// @Summary		Get the auction winner
// @Description	Resolves the winning bid of a closed auction. Idempotent.
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"	default(auc123)
// @Success		200	{object}	winner.Winner
// @Failure		404	{object}	ErrorResponse
// @Failure		409	{object}	ErrorResponse
// @Router			/auctions/{id}/winner [get]
func (h *Handler) winner(ginCtx *gin.Context) {
	w, err := h.svc.Winner(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		ginCtx.JSON(statusFor(err), &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, w)
}

// statusFor maps engine rejections onto HTTP codes so a client always learns
// why a call was refused.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, winner.ErrNoBids):
		return http.StatusNotFound
	case errors.Is(err, auction.ErrSelfBid), errors.Is(err, auction.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, auction.ErrEndsInPast):
		return http.StatusBadRequest
	case errors.Is(err, auction.ErrConcurrencyConflict):
		return http.StatusServiceUnavailable
	case errors.Is(err, auction.ErrAuctionClosed),
		errors.Is(err, auction.ErrAuctionExpired),
		errors.Is(err, auction.ErrBidTooLow),
		errors.Is(err, auction.ErrConsecutiveBid),
		errors.Is(err, winner.ErrNotClosedYet),
		errors.Is(err, store.ErrDuplicateID):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"auctionhouse/internal/services/auction"
	"auctionhouse/internal/store"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 12 * time.Second
	pingPeriod = 3 * time.Second // must be < pongWait
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // dev-only
}

// WsServer pushes auction events to subscribed clients. The channel is
// broadcast-only: bids are placed over REST, clients receive an initial
// snapshot followed by accepted-bid and closed events in per-channel commit
// order.
type WsServer struct {
	hub        *Hub
	subMgr     *subscriptionManager
	auctionSvc auction.IAuctionService
}

func NewWsServer(h *Hub, rdc *redis.Client, auctionSvc auction.IAuctionService) *WsServer {
	return &WsServer{
		hub:        h,
		subMgr:     newSubscriptionManager(rdc, h),
		auctionSvc: auctionSvc,
	}
}

// Handle is the gin entry-point: GET /ws?auction_id=...&user_id=...
func (s *WsServer) Handle(ginCtx *gin.Context) {
	auctionID := ginCtx.Query("auction_id")
	userID := ginCtx.Query("user_id")
	if auctionID == "" || userID == "" {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "auction_id and user_id are required"})
		return
	}

	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(512)

	wsConn := &clientConn{rawConn: rawConn}
	s.hub.Join(auctionID, wsConn)
	s.subMgr.Subscribe(auctionID) // may be a no-op (already subscribed)

	if err := s.pushInitialSnapshot(ginCtx.Request.Context(), auctionID, wsConn); err != nil &&
		!errors.Is(err, store.ErrNotFound) {
		zap.L().Warn("ws.snapshot", zap.Error(err))
	}

	go s.reader(auctionID, wsConn)
	go s.pinger(wsConn)
}

func (s *WsServer) pushInitialSnapshot(ctx context.Context, id string, conn *clientConn) error {
	ctx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()

	a, err := s.auctionSvc.GetAuction(ctx, id)
	if err != nil {
		return err
	}
	return conn.writeJSON(gin.H{
		"event": EventSnapshot,
		"body": SnapshotBody{
			SellerID:     a.SellerID,
			Item:         a.Item,
			StartsAt:     a.StartsAt.Unix(),
			EndsAt:       a.EndsAt.Unix(),
			Status:       string(a.Status),
			CloseReason:  string(a.CloseReason),
			CurrentPrice: a.CurrentPrice.String(),
			HighBidder:   a.HighBidder,
		},
	})
}

// reader drains the connection to process control frames and detect the
// close; inbound data frames are ignored.
func (s *WsServer) reader(auctionID string, conn *clientConn) {
	defer func() {
		s.hub.Leave(auctionID, conn)
		s.subMgr.Unsubscribe(auctionID)
	}()

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.rawConn.ReadMessage(); err != nil {
			return // client closed or errored
		}
	}
}

func (s *WsServer) pinger(conn *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.ping(); err != nil {
			conn.rawConn.Close()
			return
		}
	}
}

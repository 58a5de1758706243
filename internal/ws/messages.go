package ws

import "encoding/json"

// Envelope wraps every WS frame.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "auctions/bid"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON object
}

// Snapshot event sent once on join; bid/closed events follow as they happen.
const EventSnapshot = "auctions/snapshot"

// SnapshotBody mirrors the auction state a client needs on join.
type SnapshotBody struct {
	SellerID     string `json:"seller_id"`
	Item         string `json:"item"`
	StartsAt     int64  `json:"starts_at"`
	EndsAt       int64  `json:"ends_at"`
	Status       string `json:"status"`
	CloseReason  string `json:"close_reason,omitempty"`
	CurrentPrice string `json:"current_price"`
	HighBidder   string `json:"high_bidder,omitempty"`
}

package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Hub keeps client sets per auctionID.
type Hub struct {
	rooms sync.Map // auctionID -> *room
}

func NewHub() *Hub { return &Hub{} }

// Broadcast is called by the Redis subscriber.
func (h *Hub) Broadcast(auctionID string, msg []byte) {
	if v, ok := h.rooms.Load(auctionID); ok {
		v.(*room).broadcast(msg)
	}
}

func (h *Hub) Join(auctionID string, c *clientConn) {
	r, _ := h.rooms.LoadOrStore(auctionID, newRoom())
	r.(*room).add(c)
}

func (h *Hub) Leave(auctionID string, c *clientConn) {
	if v, ok := h.rooms.Load(auctionID); ok {
		v.(*room).remove(c)
	}
}

type room struct {
	mu    sync.RWMutex
	conns map[*clientConn]struct{}
}

func newRoom() *room { return &room{conns: map[*clientConn]struct{}{}} }

func (r *room) add(c *clientConn) {
	r.mu.Lock()
	r.conns[c] = struct{}{}
	r.mu.Unlock()
}

func (r *room) remove(c *clientConn) {
	r.mu.Lock()
	delete(r.conns, c)
	r.mu.Unlock()
	c.rawConn.Close()
}

func (r *room) broadcast(msg []byte) {
	// Snapshot the current connections, do the I/O outside the lock.
	r.mu.RLock()
	conns := make([]*clientConn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	var failed []*clientConn
	for _, c := range conns {
		if err := c.write(websocket.TextMessage, msg); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		r.remove(c)
	}
}

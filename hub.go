package main

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

const (
	defaultMaxConnsPerIP = 5
	defaultMaxTotalConns = 1000
)

// Hub tracks websocket clients and hands their lifecycle to the simulation
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	unregister chan *Client
	sim        *Simulation
	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu        sync.Mutex
	ipConns       map[string]int
	totalConns    int
	maxConnsPerIP int
	maxTotalConns int
}

// NewHub creates a Hub feeding sim
func NewHub(sim *Simulation, cfg Config) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		unregister:    make(chan *Client, 64),
		sim:           sim,
		ipConns:       make(map[string]int),
		maxConnsPerIP: cfg.MaxConnsPerIP,
		maxTotalConns: cfg.MaxTotalConns,
	}
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= h.maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= h.maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Register attaches client to the simulation before any of its messages can
// be read. The inbox is FIFO, so once this returns every command the client
// submits is handled after the attach.
func (h *Hub) Register(ctx context.Context, client *Client) error {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
	if err := h.sim.SubmitWait(ctx, AttachCmd{ConnID: client.id, Conn: client}); err != nil {
		h.mu.Lock()
		delete(h.clients, client)
		h.mu.Unlock()
		return errors.Wrapf(err, "attach client %s", client.id)
	}
	return nil
}

// Run processes unregister events until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			// A dropped socket ends the session the same way an explicit disconnect does
			if err := h.sim.SubmitWait(ctx, DisconnectedCmd{ConnID: client.id, Reason: "transport_closed"}); err != nil {
				log.Warn("disconnect client", "conn", client.id, "err", err)
			}
			if err := h.sim.SubmitWait(ctx, DetachCmd{ConnID: client.id}); err != nil {
				log.Warn("detach client", "conn", client.id, "err", err)
			}
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}

package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
)

const (
	scoreboardTimeout = 2 * time.Second
	qrSize            = 256
	statsTopKillers   = 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SetupRoutes configures HTTP routes. analytics may be nil.
func SetupRoutes(hub *Hub, cfg Config, analytics *Analytics) *mux.Router {
	router := mux.NewRouter()

	// WebSocket endpoint; /ws kept as an alias
	wsHandler := func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("upgrade", "addr", r.RemoteAddr, "err", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		if err := hub.Register(r.Context(), client); err != nil {
			log.Error("register", "addr", r.RemoteAddr, "err", err)
			hub.TrackDisconnect(ip)
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
	router.HandleFunc("/arena", wsHandler)
	router.HandleFunc("/ws", wsHandler)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), scoreboardTimeout)
		defer cancel()
		stats, err := hub.sim.Stats(ctx)
		if err != nil {
			log.Error("healthz", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "simulation unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":      "ok",
			"clients":     hub.ClientCount(),
			"connections": hub.TotalConns(),
			"arena":       stats,
		})
	}).Methods(http.MethodGet)

	router.HandleFunc("/scoreboard", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), scoreboardTimeout)
		defer cancel()
		scores, err := hub.sim.Scoreboard(ctx)
		if err != nil {
			log.Error("scoreboard", "err", err)
			http.Error(w, "scoreboard unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, scores)
	}).Methods(http.MethodGet)

	router.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		if analytics == nil {
			http.Error(w, "analytics disabled", http.StatusNotFound)
			return
		}
		days := 1
		if v := r.URL.Query().Get("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "days must be a positive integer", http.StatusBadRequest)
				return
			}
			days = n
		}
		counts, err := analytics.EventCounts(days)
		if err != nil {
			log.Error("stats", "err", err)
			http.Error(w, "stats unavailable", http.StatusInternalServerError)
			return
		}
		top, err := analytics.TopKillers(statsTopKillers)
		if err != nil {
			log.Error("stats", "err", err)
			http.Error(w, "stats unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"events":     counts,
			"topKillers": top,
		})
	}).Methods(http.MethodGet)

	// QR code of the arena socket URL so a phone can join quickly
	router.HandleFunc("/qr", func(w http.ResponseWriter, r *http.Request) {
		png, err := qrcode.Encode(arenaURL(cfg, r), qrcode.Medium, qrSize)
		if err != nil {
			log.Error("qr encode", "err", err)
			http.Error(w, "qr unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	}).Methods(http.MethodGet)

	return router
}

// arenaURL returns the websocket URL clients should dial
func arenaURL(cfg Config, r *http.Request) string {
	if cfg.PublicURL != "" {
		return cfg.PublicURL
	}
	scheme := "ws"
	if r.TLS != nil {
		scheme = "wss"
	}
	return scheme + "://" + r.Host + "/arena"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("write json", "err", err)
	}
}

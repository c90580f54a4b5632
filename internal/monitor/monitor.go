// Package monitor serves the live observation feed: an HTTP endpoint that
// upgrades to a websocket and streams one JSON record per sampling tick,
// in the same record shape the JSON exporter writes.
package monitor

import (
	"context"
	"net/http"
	"sync"
	"time"

	"codeberg.org/mutker/obdctl/internal/errors"
	"codeberg.org/mutker/obdctl/internal/logger"
	"codeberg.org/mutker/obdctl/internal/sampler"
	"codeberg.org/mutker/obdctl/internal/session"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout    = 5 * time.Second
	shutdownTimeout = 2 * time.Second
)

type Hub struct {
	addr        string
	mux         *http.ServeMux
	srv         *http.Server
	upgrader    websocket.Upgrader
	mu          sync.Mutex
	subscribers map[*websocket.Conn]bool
}

func NewHub(addr string) *Hub {
	h := &Hub{
		addr:        addr,
		subscribers: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	h.mux = http.NewServeMux()
	h.mux.HandleFunc("/ws", h.handleWS)

	return h
}

// Handler exposes the feed endpoints without binding a listener.
func (h *Hub) Handler() http.Handler {
	return h.mux
}

// Start serves in the background; serve errors other than a clean shutdown
// are logged, never fatal to the sampling loop.
func (h *Hub) Start() {
	h.srv = &http.Server{Addr: h.addr, Handler: h.mux}
	go func() {
		if err := h.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithCode(errors.Wrap(ErrServeFailed, err)).Msg("Live feed server stopped")
		}
	}()
	logger.Info().Str("addr", h.addr).Msg("Live feed listening")
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}

	h.addSubscriber(conn)

	// Reads are discarded; they only detect the peer going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.removeSubscriber(conn)
				return
			}
		}
	}()
}

type feedRecord struct {
	Timestamp time.Time                `json:"timestamp"`
	Data      map[string]session.Value `json:"data"`
}

// Broadcast sends one tick to every subscriber. A subscriber that cannot
// keep up is dropped rather than blocking the sampling loop.
func (h *Hub) Broadcast(tick []sampler.Observation) {
	if len(tick) == 0 {
		return
	}

	rec := feedRecord{
		Timestamp: tick[0].Timestamp,
		Data:      make(map[string]session.Value, len(tick)),
	}
	for _, obs := range tick {
		rec.Data[obs.Parameter] = obs.Value
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		logger.Debug().Err(err).Msg("Failed to encode feed record")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.subscribers {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(h.subscribers, conn)
			conn.Close()
		}
	}
}

// SubscriberCount returns the number of connected feed clients.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subscribers)
}

func (h *Hub) Stop() error {
	h.mu.Lock()
	for conn := range h.subscribers {
		conn.Close()
		delete(h.subscribers, conn)
	}
	h.mu.Unlock()

	if h.srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := h.srv.Shutdown(ctx); err != nil {
		return errors.Wrap(ErrShutdownFailed, err)
	}

	return nil
}

func (h *Hub) addSubscriber(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[conn] = true
	logger.Debug().Int("subscribers", len(h.subscribers)).Msg("Feed subscriber connected")
}

func (h *Hub) removeSubscriber(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[conn] {
		delete(h.subscribers, conn)
		conn.Close()
	}
}

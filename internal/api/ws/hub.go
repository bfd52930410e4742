// Package ws streams job status changes to connected clients over
// websockets.
package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lmartins/obsidian-sync/internal/domain"
)

const writeTimeout = 5 * time.Second

type client struct {
	conn   *websocket.Conn
	userID string
}

// Hub fans job status updates out to connected websocket clients. Each
// client only receives updates for jobs it owns. The hub satisfies the
// orchestrator's Notifier interface.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*client
	logger  *slog.Logger
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		logger:  logger,
	}
}

// Register adds a connection owned by userID
func (h *Hub) Register(conn *websocket.Conn, userID string) {
	h.mu.Lock()
	h.clients[conn] = &client{conn: conn, userID: userID}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("Websocket client connected",
		slog.String("user_id", userID),
		slog.Int("total_clients", total),
	)
}

// Unregister removes and closes a connection
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("Websocket client disconnected", slog.Int("total_clients", total))
}

// NotifyJobUpdate pushes a status update to the job owner's connections.
// A slow or broken connection is dropped rather than blocking the
// processing pipeline.
func (h *Hub) NotifyJobUpdate(job *domain.Job) {
	update := map[string]any{
		"type":      "job_update",
		"job_id":    job.JobID,
		"status":    job.Status.String(),
		"timestamp": job.UpdatedAt.Format(time.RFC3339),
	}
	if job.Status == domain.StatusFailed && job.ErrorMessage.Valid {
		update["error"] = job.ErrorMessage.String
	}

	payload, err := json.Marshal(update)
	if err != nil {
		h.logger.Error("Failed to marshal job update", slog.Any("error", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, c := range h.clients {
		if c.userID != job.UserID {
			continue
		}

		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Warn("Failed to push update, dropping client",
				slog.String("user_id", c.userID),
				slog.Any("error", err),
			)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Close shuts down all connections
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

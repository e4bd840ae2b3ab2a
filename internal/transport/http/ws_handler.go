package http

import (
	"log/slog"
	"net/http"
	"time"

	"quickchat/internal/observability/metrics"
	"quickchat/internal/presence"
	"quickchat/internal/transport/ws"
)

// handleWS runs the lifecycle of one live connection: authenticate the
// handshake, register presence, broadcast the online set, then block on the
// read loop until the peer goes away. Unregister is conditional on connection
// identity so an older tab closing cannot knock a newer one offline.
func (h *Handler) handleWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "missing token"})
		return
	}
	userID, err := h.tokens.Verify(token)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := ws.Accept(w, r)
	if err != nil {
		slog.Warn("ws handshake failed", "user_id", userID, "error", err)
		return
	}

	prev, replaced := h.registry.Register(userID, conn)
	if replaced {
		// The registry never closes handles; superseding a connection is a
		// lifecycle decision made here.
		slog.Info("connection superseded", "user_id", userID)
		_ = prev.(*ws.Conn).Close()
	}
	metrics.WSConnections.WithLabelValues().Inc()
	slog.Info("user connected", "user_id", userID)
	presence.BroadcastOnline(h.registry.Connections(), h.registry.OnlineIDs())

	done := make(chan struct{})
	go h.pingLoop(conn, done)

	if err := conn.ReadLoop(); err != nil {
		slog.Debug("ws read loop ended", "user_id", userID, "error", err)
	}
	close(done)
	_ = conn.Close()
	metrics.WSConnections.WithLabelValues().Dec()
	slog.Info("user disconnected", "user_id", userID)

	if h.registry.Unregister(userID, conn) {
		presence.BroadcastOnline(h.registry.Connections(), h.registry.OnlineIDs())
	}
}

// pingLoop keeps the connection warm; a failed ping surfaces as a read error
// on the dead socket, which ends the lifecycle above.
func (h *Handler) pingLoop(conn *ws.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(h.cfg.WSPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quickchat/internal/dto"
)

func (h *Handler) handleSidebar(w http.ResponseWriter, r *http.Request) {
	users, counts, err := h.messages.Sidebar(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SidebarResponse{
		Success:        true,
		Users:          users,
		UnseenMessages: counts,
	})
}

func (h *Handler) handleThread(w http.ResponseWriter, r *http.Request) {
	otherID := chi.URLParam(r, "id")
	messages, err := h.messages.Thread(r.Context(), userIDFromContext(r.Context()), otherID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ThreadResponse{Success: true, Messages: messages})
}

func (h *Handler) handleMarkSeen(w http.ResponseWriter, r *http.Request) {
	otherID := chi.URLParam(r, "id")
	if err := h.messages.MarkSeen(r.Context(), userIDFromContext(r.Context()), otherID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.StatusResponse{Success: true, Message: "Messages marked as seen"})
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var req dto.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "bad request"})
		return
	}
	receiverID := chi.URLParam(r, "id")
	msg, err := h.messages.Send(r.Context(), userIDFromContext(r.Context()), receiverID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.SendMessageResponse{Success: true, NewMessage: msg})
}

func (h *Handler) handleMedia(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var buf bytes.Buffer
	file, err := h.media.Download(r.Context(), id, &buf)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "media not found"})
		return
	}
	if file.ContentType != "" {
		w.Header().Set("Content-Type", file.ContentType)
	}
	w.Header().Set("Content-Length", strconv.FormatInt(int64(buf.Len()), 10))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/c360studio/tienditas/chat"
	"github.com/c360studio/tienditas/render"
)

// visitCookie identifies one browser's visit so chat sessions survive page
// reloads without any account system.
const visitCookie = "tienditas_visit"

// ChatRequest is the request body for POST /api/chat/{storeId}.
type ChatRequest struct {
	Message string `json:"message"`
}

// chatEvent is one SSE payload: a reply fragment. Fallback tells the
// widget to replace the turn's partial text with Delta instead of
// appending, matching what the stored transcript holds after a failure.
type chatEvent struct {
	Delta    string `json:"delta"`
	Fallback bool   `json:"fallback,omitempty"`
}

// handleChat serves the per-store chat widget. GET returns the transcript,
// POST submits a turn and streams the reply as server-sent events.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chats == nil {
		http.Error(w, "chat is not configured", http.StatusServiceUnavailable)
		return
	}

	storeID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/chat/"), "/")
	if storeID == "" || strings.Contains(storeID, "/") {
		http.NotFound(w, r)
		return
	}

	// The chat persona comes from committed data, like everything visitors
	// see.
	resolvedID, rec, ok := render.ResolveStore(s.editor.Committed(), storeID)
	if !ok {
		http.Error(w, "store not found", http.StatusNotFound)
		return
	}

	visitID := s.ensureVisitCookie(w, r)
	session := s.chats.Session(resolvedID, visitID, rec.ChatInstruction)

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, session.Transcript())
	case http.MethodPost:
		s.streamTurn(w, r, session)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// streamTurn submits the message and relays reply deltas as SSE until the
// turn completes. A failed turn arrives over the same stream as a final
// fallback-flagged event.
func (s *Server) streamTurn(w http.ResponseWriter, r *http.Request, session *chat.Session) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	deltas, err := session.SendTurn(r.Context(), req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrTurnInFlight) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		// The session has already recorded the fallback; surface it the
		// same way a streamed failure would arrive.
		s.metrics.ChatFailures.Inc()
		s.writeSSEFallback(w, flusher)
		return
	}
	s.metrics.ChatTurns.Inc()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	failed := false
	for delta := range deltas {
		if delta.Fallback {
			failed = true
		}
		writeSSEEvent(w, chatEvent{Delta: delta.Text, Fallback: delta.Fallback})
		flusher.Flush()
	}
	if failed {
		s.metrics.ChatFailures.Inc()
	}

	writeSSEDone(w)
	flusher.Flush()
}

func (s *Server) writeSSEFallback(w http.ResponseWriter, flusher http.Flusher) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	writeSSEEvent(w, chatEvent{Delta: chat.FallbackMessage, Fallback: true})
	writeSSEDone(w)
	flusher.Flush()
}

func writeSSEEvent(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	w.Write([]byte("data: "))
	w.Write(data)
	w.Write([]byte("\n\n"))
}

func writeSSEDone(w http.ResponseWriter) {
	w.Write([]byte("data: [DONE]\n\n"))
}

// ensureVisitCookie returns the visit id from the request cookie, minting
// and setting one when absent.
func (s *Server) ensureVisitCookie(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(visitCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     visitCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

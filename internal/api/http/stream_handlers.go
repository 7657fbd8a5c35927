package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/opinionmap/opinionmap/internal/domain/notification"
)

// streamConversation pushes change events of one conversation as server-sent
// events until the client disconnects.
func (s *Server) streamConversation(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "conversationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid conversationId")
		return
	}
	if _, err := s.conversationSvc.GetConversation(r.Context(), id); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}

	clientID := uuid.New().String()
	client := notification.NewSSEClient(clientID, id)
	if err := s.sseHub.Register(client); err != nil {
		respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error())
		return
	}
	defer s.sseHub.Unregister(clientID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, ": connected %s\n\n", clientID)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case msg, ok := <-client.MessageChan:
			if !ok {
				return
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			_, _ = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", msg.ID, msg.Event, payload)
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

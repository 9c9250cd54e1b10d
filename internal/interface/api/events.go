package api

import (
	"fmt"
	"net/http"

	"flightstatus-oracle/internal/domain/entity"
)

// handleEvents streams the change feed as server-sent events until the client
// disconnects
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	messages, err := s.events.Subscribe(r.Context())
	if err != nil {
		s.logger.Error("Failed to subscribe to change feed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "change feed unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			_, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", msg.UUID, msg.Metadata.Get(entity.MetadataEventType), msg.Payload)
			msg.Ack()
			if err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

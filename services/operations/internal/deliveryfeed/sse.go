package deliveryfeed

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/event"
)

const EventName = "delivery-update"

// Source is the fan-out side of a Feed.
type Source interface {
	Subscribe(id string) <-chan event.DeliveryEvent
	Unsubscribe(id string)
}

// SSE writes feed events to browsers as server-sent events.
type SSE struct {
	source    Source
	keepalive time.Duration
}

func NewSSE(source Source) *SSE {
	return &SSE{source: source, keepalive: 30 * time.Second}
}

// Stream blocks until the client leaves or the feed closes. Events rejected by allow are skipped.
func (s *SSE) Stream(w http.ResponseWriter, r *http.Request, allow func(event.DeliveryEvent) bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	id := uuid.NewString()
	events := s.source.Subscribe(id)
	defer s.source.Unsubscribe(id)

	fmt.Fprint(w, ": connected\n\n")
	fmt.Fprint(w, "retry: 2000\n\n")
	flusher.Flush()

	ticker := time.NewTicker(s.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case evt, ok := <-events:
			if !ok {
				return
			}
			if allow != nil && !allow(evt) {
				continue
			}
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", evt.DeliveryID+"-"+evt.Status, EventName, data)
			flusher.Flush()
		}
	}
}

func (s *SSE) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Stream(w, r, nil)
}

package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/example/virtual-office/internal/office"
)

// EventStream fans office events out to connected clients over
// server-sent events. It implements office.Notifier: Notify never
// blocks, a subscriber that cannot keep up loses events.
type EventStream struct {
	mu          sync.Mutex
	subscribers map[int]*subscriber
	nextID      int
	logger      *slog.Logger
}

type subscriber struct {
	principalID string
	events      chan office.Event
}

const subscriberBuffer = 64

// NewEventStream constructs an empty stream.
func NewEventStream(logger *slog.Logger) *EventStream {
	return &EventStream{
		subscribers: map[int]*subscriber{},
		logger:      defaultLogger(logger),
	}
}

// Notify routes the event to every matching subscriber. An empty
// RecipientID addresses everyone.
func (s *EventStream) Notify(_ context.Context, event office.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subscribers {
		if event.RecipientID != "" && event.RecipientID != sub.principalID {
			continue
		}
		select {
		case sub.events <- event:
		default:
			s.logger.Warn("dropping event for slow subscriber",
				"event_type", string(event.Type), "principal_id", sub.principalID)
		}
	}
}

func (s *EventStream) subscribe(principalID string) (int, <-chan office.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	sub := &subscriber{principalID: principalID, events: make(chan office.Event, subscriberBuffer)}
	s.subscribers[id] = sub
	return id, sub.events
}

func (s *EventStream) unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, id)
}

// ServeHTTP handles GET /events. It requires an authenticated
// principal in the request context and streams until the client
// disconnects.
func (s *EventStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming is not supported", http.StatusInternalServerError)
		return
	}

	id, events := s.subscribe(principal.ID)
	defer s.unsubscribe(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger := handlerLogger(r.Context(), s.logger, "EventStream", "ServeHTTP", "principal_id", principal.ID)
	logger.InfoContext(r.Context(), "event stream opened")
	defer logger.InfoContext(r.Context(), "event stream closed")

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-events:
			payload, err := json.Marshal(toEventView(event))
			if err != nil {
				logger.ErrorContext(r.Context(), "failed to encode event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", string(event.Type), payload)
			flusher.Flush()
		}
	}
}

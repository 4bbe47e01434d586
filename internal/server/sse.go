package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alfredjeanlab/reasons/internal/events"
)

const (
	// replayBufferSize is the number of recent events kept for Last-Event-ID
	// reconnection.
	replayBufferSize = 256

	streamKeepalive = 15 * time.Second
)

// streamEvent is one event delivered to stream clients.
type streamEvent struct {
	ID    uint64
	Topic string
	Data  []byte
}

// EventHub fans published events out to GET /api/events clients. It
// implements events.Publisher so it can sit next to NATS in a
// MultiPublisher.
type EventHub struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}
	nextID  uint64
	ring    [replayBufferSize]streamEvent
	ringPos int
	ringLen int
}

var _ events.Publisher = (*EventHub)(nil)

type streamClient struct {
	topics []string
	ch     chan streamEvent
}

// NewEventHub returns an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{clients: make(map[*streamClient]struct{})}
}

// Publish marshals event and broadcasts it. Slow clients drop events rather
// than block the publisher.
func (h *EventHub) Publish(_ context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	evt := streamEvent{ID: h.nextID, Topic: topic, Data: data}
	h.ring[h.ringPos] = evt
	h.ringPos = (h.ringPos + 1) % replayBufferSize
	if h.ringLen < replayBufferSize {
		h.ringLen++
	}

	for c := range h.clients {
		if !c.matches(topic) {
			continue
		}
		select {
		case c.ch <- evt:
		default:
		}
	}
	return nil
}

// Close is a no-op; streams end with their requests.
func (h *EventHub) Close() error {
	return nil
}

// subscribe registers a client and returns the events after lastID that are
// still buffered. Replay and registration happen under one lock so that no
// event is missed or duplicated between them.
func (h *EventHub) subscribe(topics []string, lastID uint64) (*streamClient, []streamEvent) {
	c := &streamClient{topics: topics, ch: make(chan streamEvent, 64)}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}

	var replay []streamEvent
	if lastID > 0 {
		start := h.ringPos - h.ringLen
		if start < 0 {
			start += replayBufferSize
		}
		for i := range h.ringLen {
			evt := h.ring[(start+i)%replayBufferSize]
			if evt.ID > lastID && c.matches(evt.Topic) {
				replay = append(replay, evt)
			}
		}
	}
	return c, replay
}

func (h *EventHub) unsubscribe(c *streamClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (c *streamClient) matches(topic string) bool {
	if len(c.topics) == 0 {
		return true
	}
	for _, pattern := range c.topics {
		if matchTopicPattern(pattern, topic) {
			return true
		}
	}
	return false
}

// matchTopicPattern matches a dot-separated topic against a NATS-style
// pattern: "*" is one segment, a trailing ">" is one or more.
func matchTopicPattern(pattern, topic string) bool {
	if pattern == topic {
		return true
	}
	patParts := strings.Split(pattern, ".")
	topParts := strings.Split(topic, ".")
	for i, pp := range patParts {
		if pp == ">" {
			return i < len(topParts)
		}
		if i >= len(topParts) {
			return false
		}
		if pp != "*" && pp != topParts[i] {
			return false
		}
	}
	return len(patParts) == len(topParts)
}

// handleEventStream handles GET /api/events as a server-sent event stream.
// ?topics=a,b filters by pattern.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	var topics []string
	for _, t := range strings.Split(r.URL.Query().Get("topics"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	var lastID uint64
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		lastID, _ = strconv.ParseUint(v, 10, 64)
	}

	client, replay := s.hub.subscribe(topics, lastID)
	defer s.hub.unsubscribe(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	for _, evt := range replay {
		writeStreamEvent(w, evt)
	}
	flusher.Flush()

	ctx := r.Context()
	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-client.ch:
			writeStreamEvent(w, evt)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeStreamEvent(w http.ResponseWriter, evt streamEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", evt.ID, evt.Topic, evt.Data)
}

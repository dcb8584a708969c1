package board

import (
	"context"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const streamWriteTimeout = 5 * time.Second

// streamEvent tells a connected page that something it renders changed.
// Events are hints: the page refetches /api/widgets rather than trusting
// any payload, so a dropped event only delays a repaint.
type streamEvent struct {
	Type   string    `json:"type"`
	Source string    `json:"source,omitempty"`
	At     time.Time `json:"at"`
}

type streamHub struct {
	logger Logger

	mu          sync.Mutex
	subscribers map[chan streamEvent]struct{}
}

func newStreamHub(logger Logger) *streamHub {
	return &streamHub{
		logger:      logger,
		subscribers: map[chan streamEvent]struct{}{},
	}
}

func (h *streamHub) subscribe() chan streamEvent {
	ch := make(chan streamEvent, 16)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *streamHub) unsubscribe(ch chan streamEvent) {
	h.mu.Lock()
	delete(h.subscribers, ch)
	h.mu.Unlock()
}

// broadcast never blocks: a subscriber that cannot keep up loses events,
// not the hub.
func (h *streamHub) broadcast(ev streamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logf("stream accept failed: %v", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream aborted")

	// The stream is server-push only. CloseRead discards client frames and
	// cancels the context when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	ch := s.hub.subscribe()
	defer s.hub.unsubscribe(ch)

	hello := streamEvent{Type: "hello", At: s.now()}
	if err := writeStreamEvent(ctx, conn, hello); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev := <-ch:
			if err := writeStreamEvent(ctx, conn, ev); err != nil {
				return
			}
		}
	}
}

func writeStreamEvent(ctx context.Context, conn *websocket.Conn, ev streamEvent) error {
	writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, ev)
}

func (s *Server) logf(format string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Printf(format, args...)
}

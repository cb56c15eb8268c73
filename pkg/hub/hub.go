package hub

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/liftviz/internal/log"
	"github.com/teslashibe/liftviz/pkg/metrics"
)

// Hub owns one stream's subscribers and fans messages out to them.
type Hub struct {
	name   string
	logger *slog.Logger

	clients    map[*Client]struct{}
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.RWMutex
	running atomic.Bool
	seq     atomic.Uint64
}

// New creates a hub named after the stream it serves.
func New(name string) *Hub {
	return &Hub{
		name:       name,
		logger:     log.With("component", "hub", "hub", name),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Name returns the stream name.
func (h *Hub) Name() string { return h.name }

// Run is the hub's loop. Call it in its own goroutine; it returns after Stop.
func (h *Hub) Run() {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		h.closeAll()
		close(h.done)
	}()

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client connected", "clients", count)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client disconnected", "clients", count)

		case msg := <-h.broadcast:
			h.fanOut(msg)

		case <-h.stop:
			h.flush()
			return
		}
	}
}

func (h *Hub) fanOut(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			close(c.send)
			delete(h.clients, c)
			metrics.DroppedClients.Inc()
			h.logger.Warn("dropped slow client", "clients", len(h.clients))
		}
	}
}

// flush hands queued broadcasts to subscribers so they are written before
// the close frame.
func (h *Hub) flush() {
	for {
		select {
		case msg := <-h.broadcast:
			h.fanOut(msg)
		default:
			return
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// Stop ends the loop and disconnects every subscriber. It is safe to call
// more than once and before Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	if h.running.Load() {
		<-h.done
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Broadcast queues msg for every subscriber. It reports false when the
// queue is full or the hub has stopped.
func (h *Hub) Broadcast(msg Message) bool {
	select {
	case <-h.done:
		return false
	default:
	}

	select {
	case h.broadcast <- msg:
		return true
	default:
		h.logger.Warn("broadcast queue full, dropping message")
		return false
	}
}

// Publish encodes v as the next message of kind and broadcasts it.
func (h *Hub) Publish(kind Kind, v any) error {
	msg, err := h.Encode(kind, v)
	if err != nil {
		return err
	}
	h.Broadcast(msg)
	return nil
}

// Encode wraps v with this stream's name and next sequence number.
func (h *Hub) Encode(kind Kind, v any) (Message, error) {
	return Encode(kind, h.name, h.seq.Add(1), v)
}

// ClientCount returns the number of subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning reports whether Run is active.
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

// Package livereload pushes reload notifications to connected browsers.
package livereload

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/slidekit/internal/metrics"
)

// Commands understood by the browser client.
const (
	CommandHello  = "hello"
	CommandReload = "reload"
)

// Message is the JSON frame sent over the websocket.
type Message struct {
	ID        string `json:"id"`
	Command   string `json:"command"`
	Path      string `json:"path,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Hub manages live-reload subscribers and fans messages out to them.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan Message]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan Message]struct{}),
	}
}

// Subscribe adds a new subscriber and returns its channel.
// The caller must call Unsubscribe when done.
func (h *Hub) Subscribe() chan Message {
	ch := make(chan Message, 16)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	n := len(h.subscribers)
	h.mu.Unlock()
	metrics.SetReloadClients(n)
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(ch chan Message) {
	h.mu.Lock()
	if _, ok := h.subscribers[ch]; ok {
		delete(h.subscribers, ch)
		close(ch)
	}
	n := len(h.subscribers)
	h.mu.Unlock()
	metrics.SetReloadClients(n)
}

// Publish stamps msg and sends it to every subscriber. Slow subscribers miss
// the message rather than block the publisher.
func (h *Hub) Publish(msg Message) Message {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
	return msg
}

// Reload tells every browser to refresh. path names the change, if any.
func (h *Hub) Reload(path string) Message {
	msg := h.Publish(Message{Command: CommandReload, Path: path})
	metrics.RecordReload()
	return msg
}

// Close disconnects every subscriber. Pending websocket loops return once
// their channel is closed.
func (h *Hub) Close() {
	h.mu.Lock()
	for ch := range h.subscribers {
		delete(h.subscribers, ch)
		close(ch)
	}
	h.mu.Unlock()
	metrics.SetReloadClients(0)
}

// Count returns the current number of subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

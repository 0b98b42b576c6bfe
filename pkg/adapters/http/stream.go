package http

import (
	"log/slog"
	"sync"
)

// StreamManager fans replies out to server-sent event subscribers, keyed by sender.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for senderID. The returned func
// unregisters and closes it.
func (sm *StreamManager) Subscribe(senderID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[senderID]; !ok {
		sm.subscribers[senderID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[senderID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[senderID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, senderID)
				}
			}
			close(ch)
		})
	}
}

// Broadcast delivers msg to every subscriber of senderID without blocking.
func (sm *StreamManager) Broadcast(senderID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[senderID] {
		select {
		case ch <- msg:
		default:
			// Slow client.
			sm.logger.Warn("SSE: Client buffer full, dropping message", "sender_id", senderID)
		}
	}
}

// Subscribers returns the number of open streams for senderID.
func (sm *StreamManager) Subscribers(senderID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[senderID])
}

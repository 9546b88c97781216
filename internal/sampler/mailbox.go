package sampler

import "sync"

// mailbox buffers tile events without ever blocking the sender, so hosts
// may emit events synchronously from RequestViewCenter.
type mailbox struct {
	mu     sync.Mutex
	events []TileEvent
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

func (m *mailbox) push(e TileEvent) {
	m.mu.Lock()
	m.events = append(m.events, e)
	m.mu.Unlock()
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *mailbox) drain() []TileEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.events
	m.events = nil
	return out
}

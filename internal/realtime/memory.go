package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/domain"
)

// ErrClosed is returned by a broker after Close.
var ErrClosed = errors.New("realtime: broker closed")

// Memory is an in-process Broker for single-instance deployments and tests.
type Memory struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]map[chan domain.Notification]struct{}
	closed bool
}

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{subs: make(map[uuid.UUID]map[chan domain.Notification]struct{})}
}

func (m *Memory) Publish(_ context.Context, n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for ch := range m.subs[n.UserID] {
		select {
		case ch <- n:
		default:
		}
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan domain.Notification, error) {
	ch := make(chan domain.Notification, subscriberBuffer)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if m.subs[userID] == nil {
		m.subs[userID] = make(map[chan domain.Notification]struct{})
	}
	m.subs[userID][ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.remove(userID, ch)
	}()
	return ch, nil
}

// remove closes ch unless Close already did.
func (m *Memory) remove(userID uuid.UUID, ch chan domain.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.subs[userID]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(m.subs, userID)
	}
	close(ch)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for _, set := range m.subs {
		for ch := range set {
			close(ch)
		}
	}
	m.subs = nil
	return nil
}

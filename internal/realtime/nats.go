package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/tripdesk/backend/internal/domain"
)

// Reconnect backoff bounds for the NATS connection.
const (
	reconnectBase = 250 * time.Millisecond
	reconnectMax  = 30 * time.Second
)

// reconnectDelay doubles from reconnectBase per attempt, capped at reconnectMax.
func reconnectDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := reconnectBase
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= reconnectMax {
			return reconnectMax
		}
	}
	return d
}

// NATS is a Broker backed by a NATS server, for deployments running more
// than one API instance. Core NATS is fire-and-forget; a client that is not
// subscribed when a notification is published reads it from the inbox later.
type NATS struct {
	conn *nats.Conn

	mu     sync.Mutex
	subs   map[*natsSub]struct{}
	closed bool
}

// natsSub is one live subscription and the channel it feeds.
type natsSub struct {
	sub *nats.Subscription

	mu     sync.Mutex
	ch     chan domain.Notification
	closed bool
}

func (s *natsSub) deliver(n domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- n:
	default:
	}
}

func (s *natsSub) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// DialNATS connects to url. The connection retries forever with capped
// exponential backoff, so subscriptions survive server restarts.
func DialNATS(url string) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("tripdesk-api"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.CustomReconnectDelay(reconnectDelay),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("realtime.DialNATS: %w", err)
	}
	return &NATS{conn: conn, subs: make(map[*natsSub]struct{})}, nil
}

func (b *NATS) Publish(_ context.Context, n domain.Notification) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrClosed
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("realtime.NATS.Publish: %w", err)
	}
	if err := b.conn.Publish(Subject(n.UserID), data); err != nil {
		return fmt.Errorf("realtime.NATS.Publish: %w", err)
	}
	return nil
}

func (b *NATS) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan domain.Notification, error) {
	s := &natsSub{ch: make(chan domain.Notification, subscriberBuffer)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	sub, err := b.conn.Subscribe(Subject(userID), func(m *nats.Msg) {
		var n domain.Notification
		if err := json.Unmarshal(m.Data, &n); err != nil {
			slog.Warn("realtime: drop malformed notification", "subject", m.Subject, "error", err)
			return
		}
		s.deliver(n)
	})
	if err != nil {
		return nil, fmt.Errorf("realtime.NATS.Subscribe: %w", err)
	}
	s.sub = sub
	b.subs[s] = struct{}{}

	go func() {
		<-ctx.Done()
		b.remove(s)
	}()
	return s.ch, nil
}

// remove ends s unless Close already did.
func (b *NATS) remove(s *natsSub) {
	b.mu.Lock()
	_, ok := b.subs[s]
	delete(b.subs, s)
	b.mu.Unlock()
	if !ok {
		return
	}
	_ = s.sub.Unsubscribe()
	s.close()
}

// Close ends every subscription, closing its channel, then drains the
// connection. A connection that cannot drain, such as one still
// reconnecting, is closed outright.
func (b *NATS) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for s := range subs {
		_ = s.sub.Unsubscribe()
		s.close()
	}
	if err := b.conn.Drain(); err != nil {
		slog.Debug("realtime: nats drain failed, closing", "error", err)
		b.conn.Close()
	}
	return nil
}

package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ecovision/climate-analytics/internal/logging"
)

// NATSConfig represents NATS connection configuration
type NATSConfig struct {
	URL      string
	Username string
	Password string
	Name     string // client name shown in server monitoring
}

// NATSQueue implements Queue with core NATS subjects. Core subscriptions fan out
// to every connected replica, which is the delivery an invalidation event needs.
type NATSQueue struct {
	conn          *nats.Conn
	subscriptions map[string]*nats.Subscription
	logger        *logging.Logger
	mu            sync.RWMutex
}

// newNATSQueue connects to NATS with reconnect handling
func newNATSQueue(cfg NATSConfig, logger *logging.Logger) (*NATSQueue, error) {
	if logger == nil {
		logger = logging.Global()
	}
	logger = logger.Component("nats-queue")

	name := cfg.Name
	if name == "" {
		name = "ecovision-api"
	}
	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("Disconnected from NATS", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", c.ConnectedUrl())
		}),
	}
	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return newNATSQueueWithConn(conn, logger), nil
}

// newNATSQueueWithConn wraps an existing connection (used in tests)
func newNATSQueueWithConn(conn *nats.Conn, logger *logging.Logger) *NATSQueue {
	if logger == nil {
		logger = logging.Global().Component("nats-queue")
	}
	return &NATSQueue{
		conn:          conn,
		subscriptions: make(map[string]*nats.Subscription),
		logger:        logger,
	}
}

// Publish publishes a message and flushes so the server has it before returning
func (q *NATSQueue) Publish(ctx context.Context, subject string, data []byte) error {
	if err := q.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	if err := q.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush subject %s: %w", subject, err)
	}
	return nil
}

// Subscribe subscribes to a subject with a message handler
func (q *NATSQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	sub, err := q.conn.Subscribe(subject, func(msg *nats.Msg) {
		if err := handler(msg.Data); err != nil {
			q.logger.Warn("Message handler failed", "subject", subject, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	// Make sure the server registered interest before the caller relies on it
	if err := q.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	q.subscriptions[subject] = sub
	return nil
}

// Unsubscribe unsubscribes from a subject
func (q *NATSQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	sub, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}

	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from subject %s: %w", subject, err)
	}

	delete(q.subscriptions, subject)
	return nil
}

// Close drains subscriptions and closes the connection
func (q *NATSQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for subject, sub := range q.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			q.logger.Warn("Failed to unsubscribe", "subject", subject, "error", err)
		}
		delete(q.subscriptions, subject)
	}

	q.conn.Close()
	return nil
}

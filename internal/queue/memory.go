package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/ecovision/climate-analytics/internal/logging"
)

// memoryBufferSize is the per-subject backlog kept while a subscriber is busy
const memoryBufferSize = 1024

type memorySubject struct {
	ch     chan []byte
	cancel context.CancelFunc
	done   chan struct{}
}

// MemoryQueue delivers messages in-process. It serves single-replica deployments
// and tests; events never leave the process.
type MemoryQueue struct {
	subjects map[string]*memorySubject
	logger   *logging.Logger
	closed   bool
	mu       sync.RWMutex
}

// newMemoryQueue creates a new in-memory queue instance
func newMemoryQueue(logger *logging.Logger) *MemoryQueue {
	if logger == nil {
		logger = logging.Global()
	}
	return &MemoryQueue{
		subjects: make(map[string]*memorySubject),
		logger:   logger.Component("memory-queue"),
	}
}

// subject returns the buffer for a subject, creating it on first use
func (q *MemoryQueue) subject(name string) (*memorySubject, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, fmt.Errorf("queue closed")
	}
	if s, ok := q.subjects[name]; ok {
		return s, nil
	}
	s := &memorySubject{ch: make(chan []byte, memoryBufferSize)}
	q.subjects[name] = s
	return s, nil
}

// Publish enqueues a copy of data for the subject's subscriber
func (q *MemoryQueue) Publish(ctx context.Context, subject string, data []byte) error {
	s, err := q.subject(subject)
	if err != nil {
		return err
	}

	msg := append([]byte(nil), data...)
	select {
	case s.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("buffer full for subject: %s", subject)
	}
}

// Subscribe starts delivering the subject's messages to handler
func (q *MemoryQueue) Subscribe(subject string, handler MessageHandler) error {
	s, err := q.subject(subject)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case data := <-s.ch:
				if err := handler(data); err != nil {
					q.logger.Warn("Message handler failed", "subject", subject, "error", err)
				}
			}
		}
	}(s.done)

	return nil
}

// Unsubscribe stops delivery for a subject and waits for the in-flight handler
func (q *MemoryQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	s, ok := q.subjects[subject]
	if !ok || s.cancel == nil {
		q.mu.Unlock()
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	q.mu.Unlock()

	cancel()
	<-done
	return nil
}

// Close stops all subscriptions; later publishes fail
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	var waits []chan struct{}
	for _, s := range q.subjects {
		if s.cancel != nil {
			s.cancel()
			waits = append(waits, s.done)
			s.cancel, s.done = nil, nil
		}
	}
	q.mu.Unlock()

	for _, done := range waits {
		<-done
	}
	return nil
}

// Pending returns the number of undelivered messages for a subject
func (q *MemoryQueue) Pending(subject string) int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if s, ok := q.subjects[subject]; ok {
		return len(s.ch)
	}
	return 0
}

// Package queue provides the handoff between the request boundary and the
// download workers: an in-process channel queue for single-binary runs and
// a RabbitMQ adapter for split server/worker deployments.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"ytgrab/internal/ports"
)

// ChannelQueue is an in-process ports.Queue. Publish blocks while the
// buffer is full; consumers on the same target compete for messages.
// Closure is signaled through a done channel rather than by closing the
// buffers, so a Publish racing Close returns an error instead of
// panicking on a closed channel.
type ChannelQueue struct {
	mu      sync.Mutex
	buffer  int
	targets map[string]chan []byte
	done    chan struct{}
	closed  bool
}

// NewChannelQueue creates a queue whose targets buffer up to buffer
// messages each.
func NewChannelQueue(buffer int) *ChannelQueue {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelQueue{
		buffer:  buffer,
		targets: make(map[string]chan []byte),
		done:    make(chan struct{}),
	}
}

func (q *ChannelQueue) Publish(ctx context.Context, message *ports.QueueMessage) error {
	body, err := json.Marshal(message.Body)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch, err := q.target(message.Target)
	if err != nil {
		return err
	}

	select {
	case ch <- body:
		return nil
	case <-q.done:
		return fmt.Errorf("queue is closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ChannelQueue) Consume(ctx context.Context, target string, handle func(ctx context.Context, body []byte) error) error {
	ch, err := q.target(target)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
			return nil
		case body := <-ch:
			// Handler errors are the handler's to log; the queue keeps going.
			_ = handle(ctx, body)
		}
	}
}

func (q *ChannelQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.done)
	return nil
}

func (q *ChannelQueue) target(name string) (chan []byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, fmt.Errorf("queue is closed")
	}
	ch, ok := q.targets[name]
	if !ok {
		ch = make(chan []byte, q.buffer)
		q.targets[name] = ch
	}
	return ch, nil
}

package ports

import "context"

// QueueMessage is a message to publish to a queue.
type QueueMessage struct {
	// Target is the queue name to publish to.
	Target string
	// Body is JSON-encoded before publishing.
	Body interface{}
}

// Queue is the handoff boundary between the request path and background
// workers. Consume blocks until ctx is cancelled; multiple consumers on the
// same target compete for messages.
type Queue interface {
	Publish(ctx context.Context, message *QueueMessage) error
	Consume(ctx context.Context, target string, handle func(ctx context.Context, body []byte) error) error
	Close() error
}

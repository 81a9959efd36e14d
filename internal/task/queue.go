package task

import "context"

// Handler processes an operation ID delivered by the queue.
type Handler func(ctx context.Context, operationID string) error

// Producer publishes operation IDs.
type Producer interface {
	Publish(ctx context.Context, operationID string) error
	Close() error
}

// Consumer delivers operation IDs to a handler with a worker pool.
type Consumer interface {
	Consume(ctx context.Context, workerCount int, handler Handler) error
	Close() error
}

// Queue is both ends of the pipe.
type Queue interface {
	Producer
	Consumer
}

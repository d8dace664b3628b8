package publisher

import "context"

// Publisher represents a service for publishing scrape batches
type Publisher interface {
	// Publish appends a message to the stream under the given field key
	Publish(ctx context.Context, key string, message []byte) error

	// Close closes the publisher connection
	Close() error
}

package cache

import (
	"time"
)

// Store is the shared backend for scrape throttling state. Entries carry a
// TTL so cooldowns expire without bookkeeping on our side; a Get on a
// missing or expired key returns the backend's miss error.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
}

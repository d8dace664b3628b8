package cache

import (
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// Memcache is a Store backed by a memcached instance, so cooldown state is
// shared across processes scraping the same hosts.
type Memcache struct {
	client *memcache.Client
}

var _ Store = (*Memcache)(nil)

// NewMemcache connects to the memcached instance at addr ("host:port")
func NewMemcache(addr string) *Memcache {
	return &Memcache{client: memcache.New(addr)}
}

func (m *Memcache) Get(key string) ([]byte, error) {
	item, err := m.client.Get(key)
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

// Set stores value under key. Sub-second TTLs truncate to zero, which
// memcached treats as no expiry, so callers should pass whole seconds.
func (m *Memcache) Set(key string, value []byte, ttl time.Duration) error {
	return m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: int32(ttl.Seconds()),
	})
}

func (m *Memcache) Delete(key string) error {
	return m.client.Delete(key)
}

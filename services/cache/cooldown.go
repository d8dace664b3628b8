package cache

import (
	"strconv"
	"time"

	"pricetrawl/logger"
)

// Cooldown tracks hosts that answered 429 so fetches against them can fail
// fast until the penalty window expires. Expiry is delegated to the store.
type Cooldown struct {
	store Store
	ttl   time.Duration
	log   *logger.Logger
}

// NewCooldown creates a cooldown tracker on top of a store
func NewCooldown(store Store, ttl time.Duration) *Cooldown {
	return &Cooldown{
		store: store,
		ttl:   ttl,
		log:   logger.ForCache(),
	}
}

// Active reports whether host is currently cooling down. A store error
// reads as not cooling, so an unreachable backend never blocks fetching.
func (c *Cooldown) Active(host string) bool {
	if c == nil || c.store == nil {
		return false
	}
	_, err := c.store.Get(cooldownKey(host))
	return err == nil
}

// Mark flags host as rate limited for the configured window
func (c *Cooldown) Mark(host string) {
	if c == nil || c.store == nil {
		return
	}
	seconds := strconv.Itoa(int(c.ttl.Seconds()))
	if err := c.store.Set(cooldownKey(host), []byte(seconds), c.ttl); err != nil {
		c.log.Warn().Err(err).Str("host", host).Msg("Failed to mark host cooldown")
		return
	}
	c.log.Info().Str("host", host).Dur("ttl", c.ttl).Msg("Host cooling down after rate limit")
}

func cooldownKey(host string) string {
	return host + "_rate_limited"
}

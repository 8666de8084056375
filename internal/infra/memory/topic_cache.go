package memory

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// TopicSuggester produces topic suggestions for a country and audience
// level (the oracle-backed generator in production).
type TopicSuggester interface {
	SuggestTopics(ctx context.Context, country, audienceLevel string) ([]string, error)
}

// TopicCache caches suggested topics with TTL so repeated setup flows for
// the same country and level do not re-query the oracle. Concurrent
// misses for one key collapse into a single oracle call.
type TopicCache struct {
	source TopicSuggester
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedTopics
}

type cachedTopics struct {
	topics    []string
	expiresAt time.Time
}

func NewTopicCache(source TopicSuggester, ttl time.Duration) *TopicCache {
	return &TopicCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedTopics),
	}
}

func (c *TopicCache) SuggestTopics(ctx context.Context, country, audienceLevel string) ([]string, error) {
	key := topicKey(country, audienceLevel)
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.topics, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.topics, nil
		}
		c.mu.RUnlock()

		topics, err := c.source.SuggestTopics(ctx, country, audienceLevel)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[key] = cachedTopics{
			topics:    topics,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return topics, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (c *TopicCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func topicKey(country, audienceLevel string) string {
	return strings.ToLower(country) + "|" + strings.ToLower(audienceLevel)
}

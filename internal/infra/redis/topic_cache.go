package redis

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// TopicSuggester produces topic suggestions on a cache miss.
type TopicSuggester interface {
	SuggestTopics(ctx context.Context, country, audienceLevel string) ([]string, error)
}

// TopicCache stores suggested topics as a Redis list per (country, level)
// key with TTL, so setup flows across instances share one oracle call.
type TopicCache struct {
	client *redis.Client
	source TopicSuggester
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewTopicCache(client *redis.Client, source TopicSuggester, ttl time.Duration) *TopicCache {
	return &TopicCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *TopicCache) SuggestTopics(ctx context.Context, country, audienceLevel string) ([]string, error) {
	key := c.key(country, audienceLevel)

	cached, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err == nil && len(cached) > 0 {
		return cached, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		cached, err := c.client.LRange(ctx, key, 0, -1).Result()
		if err == nil && len(cached) > 0 {
			return cached, nil
		}

		topics, err := c.source.SuggestTopics(ctx, country, audienceLevel)
		if err != nil {
			return nil, err
		}

		pipe := c.client.Pipeline()
		pipe.Del(ctx, key)
		pipe.RPush(ctx, key, toAny(topics)...)
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)
		return topics, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (c *TopicCache) key(country, audienceLevel string) string {
	return "quiz:topics:" + strings.ToLower(country) + "|" + strings.ToLower(audienceLevel)
}

func (c *TopicCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

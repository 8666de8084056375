package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingSuggester struct {
	calls  int
	topics []string
}

func (s *countingSuggester) SuggestTopics(_ context.Context, country, audienceLevel string) ([]string, error) {
	s.calls++
	return s.topics, nil
}

func TestTopicCacheFillsAndServesRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	source := &countingSuggester{topics: []string{"Rivers of India", "Famous Forts"}}
	cache := NewTopicCache(client, source, time.Minute)
	ctx := context.Background()

	first, err := cache.SuggestTopics(ctx, "India", "Class 8")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("unexpected topics: %v", first)
	}
	if !mr.Exists("quiz:topics:india|class 8") {
		t.Fatalf("expected topics cached in redis")
	}

	second, err := cache.SuggestTopics(ctx, "India", "Class 8")
	if err != nil {
		t.Fatalf("suggest cached: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected one source call, got %d", source.calls)
	}
	if len(second) != 2 || second[0] != "Rivers of India" {
		t.Fatalf("unexpected cached topics: %v", second)
	}
}

func TestTopicCacheExpiryReloads(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	source := &countingSuggester{topics: []string{"Rivers"}}
	cache := NewTopicCache(client, source, time.Minute)
	ctx := context.Background()

	if _, err := cache.SuggestTopics(ctx, "India", "Class 8"); err != nil {
		t.Fatalf("suggest: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := cache.SuggestTopics(ctx, "India", "Class 8"); err != nil {
		t.Fatalf("suggest after expiry: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected reload after TTL, got %d calls", source.calls)
	}
}

package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"trivia-client/internal/app"
	"trivia-client/internal/domain"
)

// FeedCache caches upstream question payloads with TTL to avoid refetching the question bank on
// every round. Errors are never cached.
type FeedCache struct {
	feed  app.QuestionFeed
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedPayload
}

type cachedPayload struct {
	value     any
	expiresAt time.Time
}

func NewFeedCache(feed app.QuestionFeed, ttl time.Duration) *FeedCache {
	return NewFeedCacheWithClock(feed, ttl, time.Now)
}

// NewFeedCacheWithClock is test-only for deterministic expiry.
func NewFeedCacheWithClock(feed app.QuestionFeed, ttl time.Duration, clock func() time.Time) *FeedCache {
	return &FeedCache{
		feed:  feed,
		ttl:   ttl,
		clock: clock,
		cache: make(map[string]cachedPayload),
	}
}

func (c *FeedCache) EpisodeQuiz(ctx context.Context, episodeID, count int) (domain.UpstreamQuiz, error) {
	key := "episode:" + strconv.Itoa(episodeID) + ":" + strconv.Itoa(count)
	return cached(c, key, func() (domain.UpstreamQuiz, error) {
		return c.feed.EpisodeQuiz(ctx, episodeID, count)
	})
}

func (c *FeedCache) MixedQuiz(ctx context.Context) (domain.UpstreamQuiz, error) {
	return cached(c, "mixed", func() (domain.UpstreamQuiz, error) {
		return c.feed.MixedQuiz(ctx)
	})
}

func (c *FeedCache) Episodes(ctx context.Context) ([]domain.Episode, error) {
	return cached(c, "episodes", func() ([]domain.Episode, error) {
		return c.feed.Episodes(ctx)
	})
}

func cached[T any](c *FeedCache, key string, load func() (T, error)) (T, error) {
	if v, ok := c.lookup(key); ok {
		return v.(T), nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another caller filled it.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[key] = cachedPayload{value: v, expiresAt: c.clock().Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func (c *FeedCache) lookup(key string) (any, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		return entry.value, true
	}
	return nil, false
}

func (c *FeedCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}

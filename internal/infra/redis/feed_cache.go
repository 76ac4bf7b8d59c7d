package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"trivia-client/internal/app"
	"trivia-client/internal/domain"
)

// FeedCache caches upstream question payloads in Redis and falls back to the feed on a miss.
// Payloads are stored verbatim as JSON so normalization still runs on every round:
//
//	SET trivia:feed:episode:{id}:{count} {json}
//	SET trivia:feed:mixed {json}
//	SET trivia:feed:episodes {json}
type FeedCache struct {
	client *redis.Client
	feed   app.QuestionFeed
	ttl    time.Duration
	sf     singleflight.Group
}

func NewFeedCache(client *redis.Client, feed app.QuestionFeed, ttl time.Duration) *FeedCache {
	return &FeedCache{
		client: client,
		feed:   feed,
		ttl:    ttl,
	}
}

func (c *FeedCache) EpisodeQuiz(ctx context.Context, episodeID, count int) (domain.UpstreamQuiz, error) {
	key := "episode:" + strconv.Itoa(episodeID) + ":" + strconv.Itoa(count)
	return cached(ctx, c, key, func() (domain.UpstreamQuiz, error) {
		return c.feed.EpisodeQuiz(ctx, episodeID, count)
	})
}

func (c *FeedCache) MixedQuiz(ctx context.Context) (domain.UpstreamQuiz, error) {
	return cached(ctx, c, "mixed", func() (domain.UpstreamQuiz, error) {
		return c.feed.MixedQuiz(ctx)
	})
}

func (c *FeedCache) Episodes(ctx context.Context) ([]domain.Episode, error) {
	return cached(ctx, c, "episodes", func() ([]domain.Episode, error) {
		return c.feed.Episodes(ctx)
	})
}

func cached[T any](ctx context.Context, c *FeedCache, name string, load func() (T, error)) (T, error) {
	key := c.key(name)
	if v, ok := lookup[T](ctx, c.client, key); ok {
		return v, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if v, ok := lookup[T](ctx, c.client, key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		if payload, err := json.Marshal(v); err == nil {
			// best-effort; a failed write only costs a refetch
			_ = c.client.Set(ctx, key, payload, c.ttlWithJitter()).Err()
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func lookup[T any](ctx context.Context, client *redis.Client, key string) (T, bool) {
	var v T
	payload, err := client.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil is a plain miss
		return v, false
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, false
	}
	return v, true
}

func (c *FeedCache) key(name string) string {
	return "trivia:feed:" + name
}

func (c *FeedCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}

package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"trivia-client/internal/app"
)

// RoundStore is a Redis-aware implementation of app.RoundRepository.
// Rounds live in a local map since their goroutine is in-process; Redis only carries a liveness
// marker per round so operators can count active rounds across instances.
type RoundStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	rounds map[string]*app.Round
}

func NewRoundStore(client *redis.Client, ttl time.Duration) *RoundStore {
	return &RoundStore{
		client: client,
		ttl:    ttl,
		rounds: make(map[string]*app.Round),
	}
}

func (s *RoundStore) Put(round *app.Round) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[round.ID()] = round
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(round.ID()), string(round.Mode()), s.ttl).Err()
}

func (s *RoundStore) Get(roundID string) (*app.Round, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	round, ok := s.rounds[roundID]
	return round, ok
}

func (s *RoundStore) Delete(roundID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds[roundID]; !ok {
		return
	}
	delete(s.rounds, roundID)
	_ = s.client.Del(context.Background(), s.key(roundID)).Err()
}

func (s *RoundStore) key(roundID string) string {
	return "trivia:round:active:" + roundID
}

package memory

import (
	"context"
	"sync"

	"trivia-client/internal/domain"
)

// Outbox keeps pending results in process memory, oldest first.
type Outbox struct {
	mu      sync.Mutex
	pending []domain.PendingResult
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Enqueue(_ context.Context, p domain.PendingResult) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, p)
	return nil
}

func (o *Outbox) Pending(_ context.Context) ([]domain.PendingResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.PendingResult, len(o.pending))
	copy(out, o.pending)
	return out, nil
}

func (o *Outbox) Remove(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, p := range o.pending {
		if p.ID == id {
			o.pending = append(o.pending[:i], o.pending[i+1:]...)
			return nil
		}
	}
	return nil
}

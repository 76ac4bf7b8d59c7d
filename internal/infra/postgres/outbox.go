package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"trivia-client/internal/domain"
)

// Outbox persists round results whose submission failed so a later sync can replay them.
type Outbox struct {
	pool *pgxpool.Pool
}

func NewOutbox(pool *pgxpool.Pool) *Outbox {
	return &Outbox{pool: pool}
}

func (o *Outbox) Enqueue(ctx context.Context, p domain.PendingResult) error {
	raw, err := json.Marshal(p.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = o.pool.Exec(ctx,
		`INSERT INTO pending_results (id, player_name, mode, result, queued_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Player, string(p.Result.Mode), raw, p.QueuedAt)
	if err != nil {
		return fmt.Errorf("enqueue result: %w", err)
	}
	return nil
}

// Pending lists queued results, oldest first.
func (o *Outbox) Pending(ctx context.Context) ([]domain.PendingResult, error) {
	rows, err := o.pool.Query(ctx,
		`SELECT id, player_name, result, queued_at FROM pending_results ORDER BY queued_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	defer rows.Close()

	var out []domain.PendingResult
	for rows.Next() {
		var (
			p   domain.PendingResult
			raw []byte
		)
		if err := rows.Scan(&p.ID, &p.Player, &raw, &p.QueuedAt); err != nil {
			return nil, fmt.Errorf("scan pending: %w", err)
		}
		if err := json.Unmarshal(raw, &p.Result); err != nil {
			return nil, fmt.Errorf("unmarshal pending %s: %w", p.ID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (o *Outbox) Remove(ctx context.Context, id string) error {
	if _, err := o.pool.Exec(ctx, `DELETE FROM pending_results WHERE id=$1`, id); err != nil {
		return fmt.Errorf("remove pending: %w", err)
	}
	return nil
}

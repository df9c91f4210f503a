package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"sellerpromotions/admin-api/internal/core/audit"
)

const insertRecord = `
	INSERT INTO promotion_audit_log (
		id, event, user_id, resource_type, resource_id,
		current_data, previous_data, tags, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

// Repository writes audit records to PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewRepository(pool *pgxpool.Pool, log *slog.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

// Write inserts one record.
func (r *Repository) Write(ctx context.Context, record audit.Record) error {
	args, err := insertArgs(record)
	if err != nil {
		return err
	}

	if _, err := r.pool.Exec(ctx, insertRecord, args...); err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}

	if r.log != nil {
		r.log.Debug("audit record stored", "id", record.ID, "event", record.Event)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func insertArgs(record audit.Record) ([]any, error) {
	current, err := json.Marshal(record.CurrentData)
	if err != nil {
		return nil, fmt.Errorf("marshal current data: %w", err)
	}

	previous := []byte(`{}`)
	if record.PreviousData != nil {
		previous, err = json.Marshal(record.PreviousData)
		if err != nil {
			return nil, fmt.Errorf("marshal previous data: %w", err)
		}
	}

	tags := record.Tags
	if tags == nil {
		tags = []string{}
	}

	return []any{
		record.ID,
		record.Event,
		record.User,
		record.ResourceType,
		record.ResourceID,
		current,
		previous,
		tags,
		record.CreatedAt,
	}, nil
}

var _ audit.Writer = (*Repository)(nil)

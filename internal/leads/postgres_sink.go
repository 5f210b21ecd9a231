package leads

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// pgQuerier is the slice of pgxpool.Pool the sink needs; pgxmock satisfies
// it in tests.
type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresSink stores leads in the relational database.
type PostgresSink struct {
	db pgQuerier
}

// NewPostgresSink initializes a sink backed by a pgx pool.
func NewPostgresSink(db pgQuerier) *PostgresSink {
	if db == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresSink{db: db}
}

// Record inserts one row.
func (s *PostgresSink) Record(ctx context.Context, lead *Lead) error {
	id := uuid.New()
	query := `
		INSERT INTO leads (id, call_id, name, phone, email, service, status, appointment_time, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := s.db.QueryRow(ctx, query,
		id,
		lead.CallID,
		lead.Name,
		lead.Phone,
		lead.Email,
		lead.Service,
		lead.Status,
		lead.AppointmentTime,
		lead.Notes,
	).Scan(&createdAt); err != nil {
		return fmt.Errorf("leads: insert failed: %w", err)
	}

	lead.ID = id.String()
	lead.CreatedAt = createdAt
	return nil
}

package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
)

// ActivityRepository encapsulates the append-only activity log.
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) error
	ListByTicket(ctx context.Context, ticketID string, kind *domain.ActivityKind) ([]domain.Activity, error)
	FindOneByTicketAndKind(ctx context.Context, ticketID string, kind domain.ActivityKind) (*domain.Activity, error)
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository instantiates repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	const query = `
        INSERT INTO activities (ticket_id, actor_id, kind, payload)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	payload, err := marshalPayload(activity.Payload)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, query,
		activity.TicketID,
		activity.ActorID,
		activity.Kind,
		payload,
	).Scan(&activity.ID, &activity.CreatedAt)
}

// ListByTicket returns activities in creation order ascending, the order
// comment threads are rendered in.
func (r *activityRepository) ListByTicket(ctx context.Context, ticketID string, kind *domain.ActivityKind) ([]domain.Activity, error) {
	query := `SELECT id, ticket_id, actor_id, kind, payload, created_at FROM activities WHERE ticket_id=$1`
	args := []any{ticketID}
	if kind != nil {
		args = append(args, *kind)
		query += ` AND kind=$2`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *activity)
	}
	return result, rows.Err()
}

func (r *activityRepository) FindOneByTicketAndKind(ctx context.Context, ticketID string, kind domain.ActivityKind) (*domain.Activity, error) {
	const query = `
        SELECT id, ticket_id, actor_id, kind, payload, created_at
        FROM activities WHERE ticket_id=$1 AND kind=$2
        ORDER BY created_at ASC LIMIT 1`
	return scanActivity(r.pool.QueryRow(ctx, query, ticketID, kind))
}

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var activity domain.Activity
	var payload []byte
	if err := row.Scan(
		&activity.ID,
		&activity.TicketID,
		&activity.ActorID,
		&activity.Kind,
		&payload,
		&activity.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &activity.Payload); err != nil {
			return nil, err
		}
	}
	return &activity, nil
}

func marshalPayload(payload map[string]any) ([]byte, error) {
	if payload == nil {
		return nil, nil
	}
	return json.Marshal(payload)
}

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
)

// NotificationFilter captures the admin audit query.
type NotificationFilter struct {
	Status *domain.NotificationStatus
	Type   *domain.NotificationType
	Limit  int
}

// NotificationRepository encapsulates the write-only notification audit log.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	List(ctx context.Context, filter NotificationFilter) ([]domain.Notification, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (user_id, ticket_id, type, recipient_email, subject, status, error, sent_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		notification.UserID,
		notification.TicketID,
		notification.Type,
		notification.RecipientEmail,
		notification.Subject,
		notification.Status,
		notification.Error,
		notification.SentAt,
	).Scan(&notification.ID, &notification.CreatedAt)
}

func (r *notificationRepository) List(ctx context.Context, filter NotificationFilter) ([]domain.Notification, error) {
	base := `SELECT id, user_id, ticket_id, type, recipient_email, subject, status, error, sent_at, created_at
             FROM notifications`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("type=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY sent_at DESC LIMIT %d`,
		base, strings.Join(clauses, " AND "), limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.TicketID,
			&n.Type,
			&n.RecipientEmail,
			&n.Subject,
			&n.Status,
			&n.Error,
			&n.SentAt,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

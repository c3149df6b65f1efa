package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
)

// TicketFilter captures list query parameters.
type TicketFilter struct {
	ReporterID *string
	AssigneeID *string
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	Category   *string
	Limit      int
}

// TicketChangeSet is the permitted field subset applied as one atomic
// single-row update. AssigneeSet distinguishes "clear the assignee" from
// "leave it alone".
type TicketChangeSet struct {
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	AssigneeSet bool
	AssigneeID  *string
}

// Empty reports whether no field survives.
func (c TicketChangeSet) Empty() bool {
	return c.Status == nil && c.Priority == nil && !c.AssigneeSet
}

// Fields returns the change set as a payload map for activity records and
// live update events.
func (c TicketChangeSet) Fields() map[string]any {
	fields := map[string]any{}
	if c.Status != nil {
		fields["status"] = string(*c.Status)
	}
	if c.Priority != nil {
		fields["priority"] = string(*c.Priority)
	}
	if c.AssigneeSet {
		if c.AssigneeID != nil {
			fields["assigneeId"] = *c.AssigneeID
		} else {
			fields["assigneeId"] = nil
		}
	}
	return fields
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ApplyChanges(ctx context.Context, id string, changes TicketChangeSet) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, issuer_name, category, sub_category, department, room,
               priority, status, reporter_id, assignee_id, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, issuer_name, category, sub_category, department, room, priority, status, reporter_id, assignee_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.IssuerName,
		ticket.Category,
		ticket.SubCategory,
		ticket.Department,
		ticket.Room,
		ticket.Priority,
		ticket.Status,
		ticket.ReporterID,
		ticket.AssigneeID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.IssuerName,
		&ticket.Category,
		&ticket.SubCategory,
		&ticket.Department,
		&ticket.Room,
		&ticket.Priority,
		&ticket.Status,
		&ticket.ReporterID,
		&ticket.AssigneeID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ApplyChanges updates only the permitted fields in a single statement,
// relying on the database's per-row atomicity. Concurrent updates are
// last-write-wins at the field level.
func (r *ticketRepository) ApplyChanges(ctx context.Context, id string, changes TicketChangeSet) error {
	if changes.Empty() {
		return nil
	}
	sets := []string{}
	args := []any{}
	if changes.Status != nil {
		args = append(args, *changes.Status)
		sets = append(sets, fmt.Sprintf("status=$%d", len(args)))
	}
	if changes.Priority != nil {
		args = append(args, *changes.Priority)
		sets = append(sets, fmt.Sprintf("priority=$%d", len(args)))
	}
	if changes.AssigneeSet {
		args = append(args, changes.AssigneeID)
		sets = append(sets, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	sets = append(sets, "updated_at=NOW()")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tickets SET %s WHERE id=$%d", strings.Join(sets, ", "), len(args))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reporter_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 200
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d`,
		base, strings.Join(clauses, " AND "), limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.IssuerName,
			&ticket.Category,
			&ticket.SubCategory,
			&ticket.Department,
			&ticket.Room,
			&ticket.Priority,
			&ticket.Status,
			&ticket.ReporterID,
			&ticket.AssigneeID,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

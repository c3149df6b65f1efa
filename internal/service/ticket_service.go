package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
	"github.com/spec-kit/campus-helpdesk/internal/events"
	"github.com/spec-kit/campus-helpdesk/internal/repository"
	"github.com/spec-kit/campus-helpdesk/internal/worker"
	apperrors "github.com/spec-kit/campus-helpdesk/pkg/util/errorutil"
)

// TicketService coordinates the ticket lifecycle: creation, permission-gated
// mutation, and the side effects each successful write triggers.
type TicketService struct {
	tickets    repository.TicketRepository
	activities repository.ActivityRepository
	users      repository.UserRepository
	notifier   worker.Notifier
	broker     *events.Broker
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	ActivityRepo repository.ActivityRepository
	UserRepo     repository.UserRepository
	Notifier     worker.Notifier
	Broker       *events.Broker
	Logger       *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	IssuerName  string
	Category    string
	SubCategory string
	Department  string
	Room        string
	Priority    domain.TicketPriority
}

// TicketListFilter describes listing filters. Mine scopes the list to the
// caller: "reporter" or "assignee".
type TicketListFilter struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	Category   *string
	AssigneeID *string
	Mine       string
	Limit      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		activities: deps.ActivityRepo,
		users:      deps.UserRepo,
		notifier:   deps.Notifier,
		broker:     deps.Broker,
		logger:     deps.Logger,
	}
}

// CreateTicket files a new ticket for the acting user. Priority is honored
// only for admin actors; everyone else gets the medium default.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.IssuerName = strings.TrimSpace(input.IssuerName)
	input.Room = strings.TrimSpace(input.Room)

	if input.Title == "" || input.Description == "" || input.IssuerName == "" || input.Room == "" {
		return nil, apperrors.NewValidationError("title, description, issuer name and room are required", nil)
	}
	if !domain.ValidDepartment(input.Department) {
		return nil, apperrors.NewValidationError("invalid department", map[string]any{"department": input.Department})
	}
	if !domain.ValidCategoryPair(input.Category, input.SubCategory) {
		return nil, apperrors.NewValidationError("invalid category", map[string]any{
			"category":    input.Category,
			"subCategory": input.SubCategory,
		})
	}

	priority := domain.TicketPriorityMedium
	if actor.Role == domain.RoleAdmin && domain.ValidPriority(input.Priority) {
		priority = input.Priority
	}

	ticket := &domain.Ticket{
		Title:       input.Title,
		Description: input.Description,
		IssuerName:  input.IssuerName,
		Category:    input.Category,
		SubCategory: input.SubCategory,
		Department:  input.Department,
		Room:        input.Room,
		Priority:    priority,
		Status:      domain.TicketStatusNew,
		ReporterID:  actor.ID,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	activity := &domain.Activity{
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Kind:     domain.ActivityCreate,
	}
	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, err
	}

	s.notifier.Enqueue(worker.Notice{
		Type:   domain.NotificationTicketCreated,
		Ticket: ticket,
		Actor:  actor,
	})
	s.publish(events.Event{Channel: events.ChannelTickets, ID: ticket.ID, Fields: map[string]any{"status": string(ticket.Status)}})

	return ticket, nil
}

// UpdateTicket applies a permission-gated mutation: evaluate policy, write
// the permitted fields atomically, record exactly one activity (plus the
// synthetic closure comment for admin closes), then fire the best-effort
// side effects.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, ticketID string, req TicketUpdateRequest) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	changes, err := EvaluateTicketUpdate(actor, ticket, req)
	if err != nil {
		return nil, err
	}

	if err := s.tickets.ApplyChanges(ctx, ticket.ID, changes); err != nil {
		return nil, err
	}

	previousAssignee := ticket.AssigneeID
	fields := changes.Fields()
	activity := &domain.Activity{
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Kind:     ActivityKindFor(changes),
		Payload:  fields,
	}
	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, err
	}

	adminClosed := actor.Role == domain.RoleAdmin &&
		changes.Status != nil && *changes.Status == domain.TicketStatusClosed
	if adminClosed {
		closure := &domain.Activity{
			TicketID: ticket.ID,
			ActorID:  actor.ID,
			Kind:     domain.ActivityComment,
			Payload:  map[string]any{"message": "Admin closed the ticket", "system": true},
		}
		if err := s.activities.Create(ctx, closure); err != nil {
			return nil, err
		}
	}

	updated, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}

	s.notifier.Enqueue(worker.Notice{
		Type:    domain.NotificationTicketUpdated,
		Ticket:  updated,
		Actor:   actor,
		Changes: fields,
	})
	if assignee := newAssignee(previousAssignee, changes); assignee != nil {
		if target, err := s.users.GetByID(ctx, *assignee); err == nil {
			s.notifier.Enqueue(worker.Notice{
				Type:   domain.NotificationTicketAssigned,
				Ticket: updated,
				Actor:  actor,
				Target: target,
			})
		} else {
			s.logger.Warn("assignee lookup for notification failed",
				zap.String("assignee_id", *assignee), zap.Error(err))
		}
	}
	s.publish(events.Event{Channel: events.ChannelTickets, ID: ticket.ID, Fields: fields})

	return updated, nil
}

// GetTicket fetches a ticket, enforcing read permission.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanReadTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("you cannot view this ticket")
	}
	return ticket, nil
}

// ListTickets returns tickets scoped by role: an unscoped list is
// admin-only, everyone else must ask for their own slice.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Status:     filter.Status,
		Priority:   filter.Priority,
		Category:   filter.Category,
		AssigneeID: filter.AssigneeID,
		Limit:      filter.Limit,
	}
	userScoped := false
	switch filter.Mine {
	case "":
	case "reporter":
		reporterID := actor.ID
		repoFilter.ReporterID = &reporterID
		userScoped = true
	case "assignee":
		assigneeID := actor.ID
		repoFilter.AssigneeID = &assigneeID
		userScoped = true
	default:
		return nil, apperrors.NewValidationError("mine must be reporter or assignee", nil)
	}

	// A bare assignee filter is a scope only for the admin or the
	// assignee themselves; anyone else would be reading someone
	// else's queue.
	if filter.AssigneeID != nil && filter.Mine == "" {
		if actor.Role != domain.RoleAdmin && *filter.AssigneeID != actor.ID {
			return nil, apperrors.NewForbidden("you can only filter by your own assignments")
		}
		userScoped = true
	}

	if !userScoped && actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins can list all tickets")
	}
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// newAssignee returns the assignee id when the change set assigns the
// ticket to someone new, and nil for clears or no-op reassignments.
func newAssignee(previous *string, changes repository.TicketChangeSet) *string {
	if !changes.AssigneeSet || changes.AssigneeID == nil {
		return nil
	}
	if previous != nil && *previous == *changes.AssigneeID {
		return nil
	}
	return changes.AssigneeID
}

// publish emits a live update event; delivery is fire-and-forget and can
// never fail the request.
func (s *TicketService) publish(event events.Event) {
	if s.broker == nil {
		return
	}
	s.broker.Publish(event)
}

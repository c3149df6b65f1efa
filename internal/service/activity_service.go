package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
	"github.com/spec-kit/campus-helpdesk/internal/events"
	"github.com/spec-kit/campus-helpdesk/internal/repository"
	"github.com/spec-kit/campus-helpdesk/internal/worker"
	apperrors "github.com/spec-kit/campus-helpdesk/pkg/util/errorutil"
)

// fallbackActorName labels activities whose actor record no longer resolves.
const fallbackActorName = "User"

// Comment is a comment activity with its actor resolved for display.
type Comment struct {
	ID        string
	Message   string
	ActorName string
	System    bool
	CreatedAt time.Time
}

// Feedback is the one-shot reporter rating on a resolved ticket.
type Feedback struct {
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// ActivityService reads and appends the per-ticket activity log.
type ActivityService struct {
	tickets    repository.TicketRepository
	activities repository.ActivityRepository
	users      repository.UserRepository
	notifier   worker.Notifier
	broker     *events.Broker
}

// ActivityDependencies bundles collaborators for the activity service.
type ActivityDependencies struct {
	TicketRepo   repository.TicketRepository
	ActivityRepo repository.ActivityRepository
	UserRepo     repository.UserRepository
	Notifier     worker.Notifier
	Broker       *events.Broker
}

// NewActivityService constructs the service.
func NewActivityService(deps ActivityDependencies) *ActivityService {
	return &ActivityService{
		tickets:    deps.TicketRepo,
		activities: deps.ActivityRepo,
		users:      deps.UserRepo,
		notifier:   deps.Notifier,
		broker:     deps.Broker,
	}
}

// ListComments returns the ticket's comment thread oldest-first, with each
// actor resolved to a display name.
func (s *ActivityService) ListComments(ctx context.Context, actor *domain.User, ticketID string) ([]Comment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanReadTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("you cannot view this ticket")
	}

	kind := domain.ActivityComment
	activities, err := s.activities.ListByTicket(ctx, ticketID, &kind)
	if err != nil {
		return nil, err
	}

	comments := make([]Comment, 0, len(activities))
	names := map[string]string{}
	for i := range activities {
		activity := &activities[i]
		name, ok := names[activity.ActorID]
		if !ok {
			name = fallbackActorName
			if user, err := s.users.GetByID(ctx, activity.ActorID); err == nil {
				name = user.Name
			}
			names[activity.ActorID] = name
		}
		comments = append(comments, Comment{
			ID:        activity.ID,
			Message:   activity.Message(),
			ActorName: name,
			System:    activity.SystemGenerated(),
			CreatedAt: activity.CreatedAt,
		})
	}
	return comments, nil
}

// AddComment appends a comment, requiring the same participation permission
// as ticket viewing and a non-empty trimmed message.
func (s *ActivityService) AddComment(ctx context.Context, actor *domain.User, ticketID, message string) (*domain.Activity, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanReadTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("you cannot comment on this ticket")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message required", nil)
	}

	activity := &domain.Activity{
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Kind:     domain.ActivityComment,
		Payload:  map[string]any{"message": message},
	}
	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, err
	}

	s.notifier.Enqueue(worker.Notice{
		Type:    domain.NotificationCommentAdded,
		Ticket:  ticket,
		Actor:   actor,
		Comment: message,
	})
	if s.broker != nil {
		s.broker.Publish(events.Event{Channel: events.ChannelTickets, ID: ticket.ID})
	}
	return activity, nil
}

// GetFeedback returns the ticket's feedback, or nil when none exists.
func (s *ActivityService) GetFeedback(ctx context.Context, actor *domain.User, ticketID string) (*Feedback, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanReadTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("you cannot view this ticket")
	}

	activity, err := s.activities.FindOneByTicketAndKind(ctx, ticketID, domain.ActivityFeedback)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return feedbackFromActivity(activity), nil
}

// SubmitFeedback records the reporter's one-time rating. Only the reporter,
// only after resolution, rating 1..5, at most once per ticket.
func (s *ActivityService) SubmitFeedback(ctx context.Context, actor *domain.User, ticketID string, rating int, comment string) (*domain.Activity, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.ReporterID != actor.ID {
		return nil, apperrors.NewForbidden("only the reporter can give feedback")
	}
	if ticket.Status != domain.TicketStatusResolved && ticket.Status != domain.TicketStatusClosed {
		return nil, apperrors.NewValidationError("feedback allowed after resolution", nil)
	}
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be 1-5", map[string]any{"rating": rating})
	}

	if existing, err := s.activities.FindOneByTicketAndKind(ctx, ticketID, domain.ActivityFeedback); err == nil && existing != nil {
		return nil, apperrors.NewValidationError("feedback already submitted", nil)
	} else if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}

	activity := &domain.Activity{
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Kind:     domain.ActivityFeedback,
		Payload:  map[string]any{"rating": rating, "comment": strings.TrimSpace(comment)},
	}
	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, err
	}

	if s.broker != nil {
		s.broker.Publish(events.Event{Channel: events.ChannelTickets, ID: ticket.ID})
	}
	return activity, nil
}

func feedbackFromActivity(activity *domain.Activity) *Feedback {
	fb := &Feedback{CreatedAt: activity.CreatedAt}
	if activity.Payload != nil {
		switch rating := activity.Payload["rating"].(type) {
		case float64:
			fb.Rating = int(rating)
		case int:
			fb.Rating = rating
		}
		if comment, ok := activity.Payload["comment"].(string); ok {
			fb.Comment = comment
		}
	}
	return fb
}

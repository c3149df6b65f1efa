package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
	"github.com/spec-kit/campus-helpdesk/internal/mail"
	"github.com/spec-kit/campus-helpdesk/internal/repository"
)

// Notice is one domain event handed to the dispatcher. Snapshots are taken
// at enqueue time so the worker never races the request path.
type Notice struct {
	Type    domain.NotificationType
	Ticket  *domain.Ticket
	Actor   *domain.User
	Target  *domain.User
	Changes map[string]any
	Comment string
}

// Notifier is the narrow surface services use to hand off notification
// work. Enqueue must never block the caller.
type Notifier interface {
	Enqueue(n Notice) bool
}

// Dispatcher owns the notification queue. Services enqueue notices and move
// on; the dispatcher resolves recipients, applies per-user preference
// gating, attempts delivery, and durably records every attempt. Nothing
// here can fail the originating mutation.
type Dispatcher struct {
	queue         chan Notice
	users         repository.UserRepository
	notifications repository.NotificationRepository
	mailer        mail.Mailer
	logger        *zap.Logger
	baseURL       string
}

// NewDispatcher constructs the dispatcher with a bounded queue.
func NewDispatcher(queueSize int, users repository.UserRepository, notifications repository.NotificationRepository, mailer mail.Mailer, logger *zap.Logger, baseURL string) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{
		queue:         make(chan Notice, queueSize),
		users:         users,
		notifications: notifications,
		mailer:        mailer,
		logger:        logger,
		baseURL:       baseURL,
	}
}

// Enqueue hands a notice to the worker without blocking. A full queue drops
// the notice; notifications are best-effort by contract.
func (d *Dispatcher) Enqueue(n Notice) bool {
	select {
	case d.queue <- n:
		return true
	default:
		d.logger.Warn("notification queue full, dropping notice",
			zap.String("type", string(n.Type)))
		return false
	}
}

// Run consumes the queue until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case notice := <-d.queue:
			d.Process(ctx, notice)
		}
	}
}

// recipient pairs a user with the label used in logs.
type recipient struct {
	user *domain.User
	kind string
}

// Process handles a single notice end to end. Exported so the worker can be
// driven synchronously in tests.
func (d *Dispatcher) Process(ctx context.Context, n Notice) {
	recipients, err := d.resolveRecipients(ctx, n)
	if err != nil {
		d.logger.Warn("resolving notification recipients failed",
			zap.String("type", string(n.Type)), zap.Error(err))
		return
	}

	msg, err := d.render(n)
	if err != nil {
		d.logger.Warn("rendering notification failed",
			zap.String("type", string(n.Type)), zap.Error(err))
		return
	}

	for _, rcpt := range recipients {
		d.deliver(ctx, n, rcpt, msg)
	}
}

// resolveRecipients computes the candidate recipient set per event type.
func (d *Dispatcher) resolveRecipients(ctx context.Context, n Notice) ([]recipient, error) {
	actorID := ""
	if n.Actor != nil {
		actorID = n.Actor.ID
	}

	switch n.Type {
	case domain.NotificationTicketCreated:
		// reporter plus every admin
		recipients := []recipient{}
		if reporter, err := d.users.GetByID(ctx, n.Ticket.ReporterID); err == nil {
			recipients = append(recipients, recipient{user: reporter, kind: "reporter"})
		}
		admins, err := d.users.ListByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return recipients, err
		}
		for i := range admins {
			recipients = append(recipients, recipient{user: &admins[i], kind: "admin"})
		}
		return recipients, nil

	case domain.NotificationTicketUpdated:
		// reporter, assignee unless they made the change, admins except the actor
		recipients := []recipient{}
		if reporter, err := d.users.GetByID(ctx, n.Ticket.ReporterID); err == nil {
			recipients = append(recipients, recipient{user: reporter, kind: "reporter"})
		}
		if n.Ticket.AssigneeID != nil && *n.Ticket.AssigneeID != actorID {
			if assignee, err := d.users.GetByID(ctx, *n.Ticket.AssigneeID); err == nil {
				recipients = append(recipients, recipient{user: assignee, kind: "assignee"})
			}
		}
		admins, err := d.users.ListByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return recipients, err
		}
		for i := range admins {
			if admins[i].ID == actorID {
				continue
			}
			recipients = append(recipients, recipient{user: &admins[i], kind: "admin"})
		}
		return recipients, nil

	case domain.NotificationTicketAssigned:
		// the new assignee only
		if n.Target == nil {
			return nil, nil
		}
		return []recipient{{user: n.Target, kind: "assignee"}}, nil

	case domain.NotificationCommentAdded:
		// reporter, assignee and admins, all excluding the commenter
		recipients := []recipient{}
		if n.Ticket.ReporterID != actorID {
			if reporter, err := d.users.GetByID(ctx, n.Ticket.ReporterID); err == nil {
				recipients = append(recipients, recipient{user: reporter, kind: "reporter"})
			}
		}
		if n.Ticket.AssigneeID != nil && *n.Ticket.AssigneeID != actorID {
			if assignee, err := d.users.GetByID(ctx, *n.Ticket.AssigneeID); err == nil {
				recipients = append(recipients, recipient{user: assignee, kind: "assignee"})
			}
		}
		admins, err := d.users.ListByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return recipients, err
		}
		for i := range admins {
			if admins[i].ID == actorID {
				continue
			}
			recipients = append(recipients, recipient{user: &admins[i], kind: "admin"})
		}
		return recipients, nil

	case domain.NotificationProfileUpdated:
		// the affected user only
		if n.Target == nil {
			return nil, nil
		}
		return []recipient{{user: n.Target, kind: "user"}}, nil
	}

	return nil, fmt.Errorf("unknown notification type %q", n.Type)
}

// deliver applies preference gating, attempts delivery, and records the
// outcome. Errors are logged and swallowed.
func (d *Dispatcher) deliver(ctx context.Context, n Notice, rcpt recipient, msg mail.Message) {
	if rcpt.user.Email == "" {
		return
	}

	if !rcpt.user.WantsEmail(n.Type) {
		d.record(ctx, n, rcpt, domain.NotificationSkipped, msg.Subject, "user preferences disabled")
		return
	}

	err := d.mailer.Send(ctx, rcpt.user.Email, msg.Subject, msg.Text, msg.HTML)
	switch {
	case err == nil:
		d.record(ctx, n, rcpt, domain.NotificationSent, msg.Subject, "")
	case errors.Is(err, mail.ErrNotConfigured):
		d.record(ctx, n, rcpt, domain.NotificationSkipped, msg.Subject, "SMTP not configured")
	default:
		d.logger.Warn("notification delivery failed",
			zap.String("type", string(n.Type)),
			zap.String("recipient", rcpt.user.Email),
			zap.Error(err))
		d.record(ctx, n, rcpt, domain.NotificationFailed, msg.Subject, err.Error())
	}
}

func (d *Dispatcher) record(ctx context.Context, n Notice, rcpt recipient, status domain.NotificationStatus, subject, errText string) {
	notification := &domain.Notification{
		UserID:         rcpt.user.ID,
		Type:           n.Type,
		RecipientEmail: rcpt.user.Email,
		Subject:        subject,
		Status:         status,
		SentAt:         time.Now(),
	}
	if n.Ticket != nil {
		ticketID := n.Ticket.ID
		notification.TicketID = &ticketID
	}
	if errText != "" {
		notification.Error = &errText
	}
	if err := d.notifications.Create(ctx, notification); err != nil {
		d.logger.Warn("recording notification failed",
			zap.String("type", string(n.Type)), zap.Error(err))
	}
}

func (d *Dispatcher) render(n Notice) (mail.Message, error) {
	switch n.Type {
	case domain.NotificationProfileUpdated:
		userName, updatedBy := "", ""
		if n.Target != nil {
			userName = n.Target.Name
		}
		if n.Actor != nil {
			updatedBy = n.Actor.Name
		}
		return mail.ProfileUpdated(userName, updatedBy, n.Changes)
	}

	tc := d.ticketContext(n.Ticket)
	switch n.Type {
	case domain.NotificationTicketCreated:
		return mail.TicketCreated(tc)
	case domain.NotificationTicketUpdated:
		actorName := ""
		if n.Actor != nil {
			actorName = n.Actor.Name
		}
		return mail.TicketUpdated(tc, actorName, n.Changes)
	case domain.NotificationTicketAssigned:
		assigneeName := ""
		if n.Target != nil {
			assigneeName = n.Target.Name
		}
		return mail.TicketAssigned(tc, assigneeName)
	case domain.NotificationCommentAdded:
		commenterName := ""
		if n.Actor != nil {
			commenterName = n.Actor.Name
		}
		return mail.CommentAdded(tc, commenterName, n.Comment)
	}
	return mail.Message{}, fmt.Errorf("unknown notification type %q", n.Type)
}

func (d *Dispatcher) ticketContext(ticket *domain.Ticket) mail.TicketContext {
	if ticket == nil {
		return mail.TicketContext{}
	}
	return mail.TicketContext{
		ShortID:     ticket.ShortID(),
		IssuerName:  ticket.IssuerName,
		Category:    ticket.Category,
		SubCategory: ticket.SubCategory,
		Department:  ticket.Department,
		Room:        ticket.Room,
		Priority:    ticket.Priority,
		Status:      ticket.Status,
		Description: ticket.Description,
		TicketURL:   fmt.Sprintf("%s/tickets/%s", d.baseURL, ticket.ID),
	}
}

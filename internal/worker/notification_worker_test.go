package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
	"github.com/spec-kit/campus-helpdesk/internal/mail"
	"github.com/spec-kit/campus-helpdesk/internal/repository"
)

// fakeUsers backs recipient resolution with a fixed user set.
type fakeUsers struct {
	users map[string]*domain.User
}

func (f *fakeUsers) Create(ctx context.Context, user *domain.User) error { return nil }
func (f *fakeUsers) Update(ctx context.Context, user *domain.User) error { return nil }
func (f *fakeUsers) UpdatePreferences(ctx context.Context, id string, prefs domain.NotificationPreferences) error {
	return nil
}
func (f *fakeUsers) UpdateLastLogin(ctx context.Context, id string, at time.Time) error { return nil }

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	return f.List(ctx, &role)
}

func (f *fakeUsers) List(ctx context.Context, role *domain.Role) ([]domain.User, error) {
	var result []domain.User
	for _, user := range f.users {
		if role != nil && user.Role != *role {
			continue
		}
		result = append(result, *user)
	}
	return result, nil
}

// fakeNotifications records the audit rows the dispatcher writes.
type fakeNotifications struct {
	mu      sync.Mutex
	records []domain.Notification
}

func (f *fakeNotifications) Create(ctx context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, *n)
	return nil
}

func (f *fakeNotifications) List(ctx context.Context, filter repository.NotificationFilter) ([]domain.Notification, error) {
	return nil, nil
}

func (f *fakeNotifications) byStatus(status domain.NotificationStatus) []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Notification
	for _, record := range f.records {
		if record.Status == status {
			result = append(result, record)
		}
	}
	return result
}

func (f *fakeNotifications) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	emails := make([]string, 0, len(f.records))
	for _, record := range f.records {
		emails = append(emails, record.RecipientEmail)
	}
	return emails
}

// fakeMailer either succeeds, fails, or reports itself unconfigured.
type fakeMailer struct {
	err  error
	sent []string
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, text, html string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

func disabledPrefs() *domain.NotificationPreferences {
	prefs := domain.DefaultNotificationPreferences()
	prefs.EmailEnabled = false
	return &prefs
}

func testUsers() map[string]*domain.User {
	return map[string]*domain.User{
		"rep-1":   {ID: "rep-1", Name: "Asha", Email: "asha@campus.edu", Role: domain.RoleReporter},
		"tech-1":  {ID: "tech-1", Name: "Ravi", Email: "ravi@campus.edu", Role: domain.RoleTechnician},
		"admin-1": {ID: "admin-1", Name: "Meera", Email: "meera@campus.edu", Role: domain.RoleAdmin},
		"admin-2": {ID: "admin-2", Name: "Vikram", Email: "vikram@campus.edu", Role: domain.RoleAdmin},
	}
}

func testTicket(assigneeID *string) *domain.Ticket {
	return &domain.Ticket{
		ID:          "ticket-abc123",
		Title:       "Printer out of toner",
		Description: "Lab printer down",
		IssuerName:  "Asha",
		Category:    "Hardware",
		SubCategory: "Printer",
		Department:  "CSE",
		Room:        "Lab 204",
		Priority:    domain.TicketPriorityMedium,
		Status:      domain.TicketStatusNew,
		ReporterID:  "rep-1",
		AssigneeID:  assigneeID,
	}
}

func newTestDispatcher(users map[string]*domain.User, mailer mail.Mailer) (*Dispatcher, *fakeNotifications) {
	notifications := &fakeNotifications{}
	dispatcher := NewDispatcher(8, &fakeUsers{users: users}, notifications, mailer, zap.NewNop(), "http://helpdesk.local")
	return dispatcher, notifications
}

func TestProcessTicketCreatedRecipients(t *testing.T) {
	users := testUsers()
	mailer := &fakeMailer{}
	dispatcher, notifications := newTestDispatcher(users, mailer)

	dispatcher.Process(context.Background(), Notice{
		Type:   domain.NotificationTicketCreated,
		Ticket: testTicket(nil),
		Actor:  users["rep-1"],
	})

	// reporter plus both admins, never the technician
	assert.ElementsMatch(t,
		[]string{"asha@campus.edu", "meera@campus.edu", "vikram@campus.edu"},
		notifications.recipients())
	assert.Len(t, notifications.byStatus(domain.NotificationSent), 3)
}

func TestProcessTicketUpdatedExcludesActingAdmin(t *testing.T) {
	users := testUsers()
	mailer := &fakeMailer{}
	dispatcher, notifications := newTestDispatcher(users, mailer)

	assignee := "tech-1"
	dispatcher.Process(context.Background(), Notice{
		Type:    domain.NotificationTicketUpdated,
		Ticket:  testTicket(&assignee),
		Actor:   users["admin-1"],
		Changes: map[string]any{"status": "in_progress"},
	})

	assert.ElementsMatch(t,
		[]string{"asha@campus.edu", "ravi@campus.edu", "vikram@campus.edu"},
		notifications.recipients())
}

func TestProcessCommentAddedExcludesCommenter(t *testing.T) {
	users := testUsers()
	mailer := &fakeMailer{}
	dispatcher, notifications := newTestDispatcher(users, mailer)

	assignee := "tech-1"
	dispatcher.Process(context.Background(), Notice{
		Type:    domain.NotificationCommentAdded,
		Ticket:  testTicket(&assignee),
		Actor:   users["rep-1"],
		Comment: "any update?",
	})

	assert.ElementsMatch(t,
		[]string{"ravi@campus.edu", "meera@campus.edu", "vikram@campus.edu"},
		notifications.recipients())
}

func TestProcessTicketAssignedTargetsAssigneeOnly(t *testing.T) {
	users := testUsers()
	mailer := &fakeMailer{}
	dispatcher, notifications := newTestDispatcher(users, mailer)

	assignee := "tech-1"
	dispatcher.Process(context.Background(), Notice{
		Type:   domain.NotificationTicketAssigned,
		Ticket: testTicket(&assignee),
		Actor:  users["admin-1"],
		Target: users["tech-1"],
	})

	assert.Equal(t, []string{"ravi@campus.edu"}, notifications.recipients())
}

func TestProcessPreferenceGatingRecordsSkipped(t *testing.T) {
	users := testUsers()
	users["rep-1"].Preferences = disabledPrefs()
	mailer := &fakeMailer{}
	dispatcher, notifications := newTestDispatcher(users, mailer)

	dispatcher.Process(context.Background(), Notice{
		Type:   domain.NotificationTicketCreated,
		Ticket: testTicket(nil),
		Actor:  users["rep-1"],
	})

	skipped := notifications.byStatus(domain.NotificationSkipped)
	require.Len(t, skipped, 1)
	assert.Equal(t, "asha@campus.edu", skipped[0].RecipientEmail)
	require.NotNil(t, skipped[0].Error)
	assert.Equal(t, "user preferences disabled", *skipped[0].Error)
	assert.NotContains(t, mailer.sent, "asha@campus.edu")

	assert.Len(t, notifications.byStatus(domain.NotificationSent), 2)
}

func TestProcessPerTypeOptOut(t *testing.T) {
	users := testUsers()
	prefs := domain.DefaultNotificationPreferences()
	prefs.NewComment = false
	users["tech-1"].Preferences = &prefs
	mailer := &fakeMailer{}
	dispatcher, notifications := newTestDispatcher(users, mailer)

	assignee := "tech-1"
	dispatcher.Process(context.Background(), Notice{
		Type:    domain.NotificationCommentAdded,
		Ticket:  testTicket(&assignee),
		Actor:   users["rep-1"],
		Comment: "ping",
	})

	skipped := notifications.byStatus(domain.NotificationSkipped)
	require.Len(t, skipped, 1)
	assert.Equal(t, "ravi@campus.edu", skipped[0].RecipientEmail)
}

func TestProcessUnconfiguredMailerRecordsSkipped(t *testing.T) {
	users := testUsers()
	mailer := &fakeMailer{err: mail.ErrNotConfigured}
	dispatcher, notifications := newTestDispatcher(users, mailer)

	dispatcher.Process(context.Background(), Notice{
		Type:   domain.NotificationTicketCreated,
		Ticket: testTicket(nil),
		Actor:  users["rep-1"],
	})

	assert.Empty(t, notifications.byStatus(domain.NotificationSent))
	skipped := notifications.byStatus(domain.NotificationSkipped)
	require.Len(t, skipped, 3)
	for _, record := range skipped {
		require.NotNil(t, record.Error)
		assert.Equal(t, "SMTP not configured", *record.Error)
	}
}

func TestProcessDeliveryFailureRecordsFailed(t *testing.T) {
	users := testUsers()
	mailer := &fakeMailer{err: errors.New("connection refused")}
	dispatcher, notifications := newTestDispatcher(users, mailer)

	dispatcher.Process(context.Background(), Notice{
		Type:   domain.NotificationProfileUpdated,
		Actor:  users["admin-1"],
		Target: users["rep-1"],
	})

	failed := notifications.byStatus(domain.NotificationFailed)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].Error)
	assert.Equal(t, "connection refused", *failed[0].Error)
	assert.Nil(t, failed[0].TicketID)
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	users := testUsers()
	dispatcher, _ := newTestDispatcher(users, &fakeMailer{})

	notice := Notice{Type: domain.NotificationTicketCreated, Ticket: testTicket(nil)}
	for i := 0; i < 8; i++ {
		assert.True(t, dispatcher.Enqueue(notice))
	}
	assert.False(t, dispatcher.Enqueue(notice))
}

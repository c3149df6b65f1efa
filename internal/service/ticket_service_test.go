package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
	"github.com/spec-kit/campus-helpdesk/internal/events"
	"github.com/spec-kit/campus-helpdesk/internal/repository"
)

func newTicketServiceFixture(users ...*domain.User) (*TicketService, *fakeTicketRepo, *fakeActivityRepo, *recordingNotifier, *events.Broker) {
	ticketRepo := newFakeTicketRepo()
	activityRepo := newFakeActivityRepo()
	userRepo := newFakeUserRepo(users...)
	notifier := &recordingNotifier{}
	broker := events.NewBroker(8)

	svc := NewTicketService(TicketDependencies{
		TicketRepo:   ticketRepo,
		ActivityRepo: activityRepo,
		UserRepo:     userRepo,
		Notifier:     notifier,
		Broker:       broker,
		Logger:       zap.NewNop(),
	})
	return svc, ticketRepo, activityRepo, notifier, broker
}

func validCreateInput() TicketCreateInput {
	return TicketCreateInput{
		Title:       "Printer out of toner",
		Description: "The lab printer stopped printing.",
		IssuerName:  "Asha Verma",
		Category:    "Hardware",
		SubCategory: "Printer",
		Department:  "CSE",
		Room:        "Lab 204",
	}
}

func TestCreateTicketDefaults(t *testing.T) {
	rep := reporterUser()
	svc, _, activityRepo, notifier, _ := newTicketServiceFixture(rep)

	ticket, err := svc.CreateTicket(context.Background(), rep, validCreateInput())
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusNew, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, rep.ID, ticket.ReporterID)
	assert.Nil(t, ticket.AssigneeID)

	created := activityRepo.byKind(domain.ActivityCreate)
	require.Len(t, created, 1)
	assert.Equal(t, ticket.ID, created[0].TicketID)

	queued := notifier.byType(domain.NotificationTicketCreated)
	require.Len(t, queued, 1)
	assert.Equal(t, ticket.ID, queued[0].Ticket.ID)
}

func TestCreateTicketPriorityAdminOnly(t *testing.T) {
	rep := reporterUser()
	admin := adminUser()
	svc, _, _, _, _ := newTicketServiceFixture(rep, admin)

	input := validCreateInput()
	input.Priority = domain.TicketPriorityHigh

	ticket, err := svc.CreateTicket(context.Background(), rep, input)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)

	ticket, err = svc.CreateTicket(context.Background(), admin, input)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityHigh, ticket.Priority)
}

func TestCreateTicketRejectsBadCatalog(t *testing.T) {
	rep := reporterUser()
	svc, _, _, _, _ := newTicketServiceFixture(rep)

	input := validCreateInput()
	input.SubCategory = "Plumbing"
	_, err := svc.CreateTicket(context.Background(), rep, input)
	require.Error(t, err)

	input = validCreateInput()
	input.Department = "History"
	_, err = svc.CreateTicket(context.Background(), rep, input)
	require.Error(t, err)
}

func TestUpdateTicketAssignFlow(t *testing.T) {
	rep := reporterUser()
	tech := technicianUser()
	admin := adminUser()
	svc, _, activityRepo, notifier, _ := newTicketServiceFixture(rep, tech, admin)

	ticket, err := svc.CreateTicket(context.Background(), rep, validCreateInput())
	require.NoError(t, err)

	updated, err := svc.UpdateTicket(context.Background(), admin, ticket.ID, TicketUpdateRequest{
		AssigneeSet: true,
		AssigneeID:  strPtr(tech.ID),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, tech.ID, *updated.AssigneeID)

	assigns := activityRepo.byKind(domain.ActivityAssign)
	require.Len(t, assigns, 1)
	assert.Equal(t, tech.ID, assigns[0].Payload["assigneeId"])

	assigned := notifier.byType(domain.NotificationTicketAssigned)
	require.Len(t, assigned, 1)
	assert.Equal(t, tech.ID, assigned[0].Target.ID)
	assert.Len(t, notifier.byType(domain.NotificationTicketUpdated), 1)

	// reassigning the same technician does not renotify
	_, err = svc.UpdateTicket(context.Background(), admin, ticket.ID, TicketUpdateRequest{
		AssigneeSet: true,
		AssigneeID:  strPtr(tech.ID),
	})
	require.NoError(t, err)
	assert.Len(t, notifier.byType(domain.NotificationTicketAssigned), 1)
}

func TestUpdateTicketMultiFieldWritesSingleActivity(t *testing.T) {
	rep := reporterUser()
	tech := technicianUser()
	admin := adminUser()
	svc, _, activityRepo, _, _ := newTicketServiceFixture(rep, tech, admin)

	ticket, err := svc.CreateTicket(context.Background(), rep, validCreateInput())
	require.NoError(t, err)

	before := len(activityRepo.activities)
	_, err = svc.UpdateTicket(context.Background(), admin, ticket.ID, TicketUpdateRequest{
		Status:      statusPtr(domain.TicketStatusInProgress),
		Priority:    priorityPtr(domain.TicketPriorityHigh),
		AssigneeSet: true,
		AssigneeID:  strPtr(tech.ID),
	})
	require.NoError(t, err)

	added := activityRepo.activities[before:]
	require.Len(t, added, 1)
	assert.Equal(t, domain.ActivityUpdateStatus, added[0].Kind)
	assert.Equal(t, "in_progress", added[0].Payload["status"])
	assert.Equal(t, "high", added[0].Payload["priority"])
	assert.Equal(t, tech.ID, added[0].Payload["assigneeId"])
}

func TestUpdateTicketAdminCloseAddsSystemComment(t *testing.T) {
	rep := reporterUser()
	admin := adminUser()
	svc, _, activityRepo, _, _ := newTicketServiceFixture(rep, admin)

	ticket, err := svc.CreateTicket(context.Background(), rep, validCreateInput())
	require.NoError(t, err)

	_, err = svc.UpdateTicket(context.Background(), admin, ticket.ID, TicketUpdateRequest{
		Status: statusPtr(domain.TicketStatusResolved),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateTicket(context.Background(), admin, ticket.ID, TicketUpdateRequest{
		Status: statusPtr(domain.TicketStatusClosed),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, updated.Status)

	comments := activityRepo.byKind(domain.ActivityComment)
	require.Len(t, comments, 1)
	assert.Equal(t, "Admin closed the ticket", comments[0].Message())
	assert.True(t, comments[0].SystemGenerated())
}

func TestUpdateTicketPublishesLiveEvent(t *testing.T) {
	rep := reporterUser()
	admin := adminUser()
	svc, _, _, _, broker := newTicketServiceFixture(rep, admin)

	ticket, err := svc.CreateTicket(context.Background(), rep, validCreateInput())
	require.NoError(t, err)

	sub := broker.Subscribe()
	defer sub.Close()

	_, err = svc.UpdateTicket(context.Background(), admin, ticket.ID, TicketUpdateRequest{
		Status: statusPtr(domain.TicketStatusInProgress),
	})
	require.NoError(t, err)

	select {
	case event := <-sub.C:
		assert.Equal(t, events.ChannelTickets, event.Channel)
		assert.Equal(t, ticket.ID, event.ID)
		assert.Equal(t, "in_progress", event.Fields["status"])
	default:
		t.Fatal("expected a live update event")
	}
}

func TestUpdateTicketRejectionLeavesNoTrace(t *testing.T) {
	rep := reporterUser()
	admin := adminUser()
	svc, _, activityRepo, notifier, _ := newTicketServiceFixture(rep, admin)

	ticket, err := svc.CreateTicket(context.Background(), rep, validCreateInput())
	require.NoError(t, err)

	otherTech := &domain.User{ID: "tech-9", Role: domain.RoleTechnician}
	activitiesBefore := len(activityRepo.activities)
	noticesBefore := len(notifier.notices)

	_, err = svc.UpdateTicket(context.Background(), otherTech, ticket.ID, TicketUpdateRequest{
		Status: statusPtr(domain.TicketStatusInProgress),
	})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))

	stored, err := svc.GetTicket(context.Background(), admin, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNew, stored.Status)
	assert.Len(t, activityRepo.activities, activitiesBefore)
	assert.Len(t, notifier.notices, noticesBefore)
}

func TestGetTicketEnforcesReadPermission(t *testing.T) {
	rep := reporterUser()
	svc, _, _, _, _ := newTicketServiceFixture(rep)

	ticket, err := svc.CreateTicket(context.Background(), rep, validCreateInput())
	require.NoError(t, err)

	stranger := &domain.User{ID: "rep-2", Role: domain.RoleReporter}
	_, err = svc.GetTicket(context.Background(), stranger, ticket.ID)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))
}

func TestListTicketsScoping(t *testing.T) {
	rep := reporterUser()
	tech := technicianUser()
	admin := adminUser()
	svc, ticketRepo, _, _, _ := newTicketServiceFixture(rep, tech, admin)

	first, err := svc.CreateTicket(context.Background(), rep, validCreateInput())
	require.NoError(t, err)
	other := &domain.User{ID: "rep-2", Role: domain.RoleReporter}
	_, err = svc.CreateTicket(context.Background(), other, validCreateInput())
	require.NoError(t, err)

	require.NoError(t, ticketRepo.ApplyChanges(context.Background(), first.ID,
		mustChanges(t, admin, first, TicketUpdateRequest{AssigneeSet: true, AssigneeID: strPtr(tech.ID)})))

	// unscoped listing is admin only
	_, err = svc.ListTickets(context.Background(), rep, TicketListFilter{})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))

	all, err := svc.ListTickets(context.Background(), admin, TicketListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.ListTickets(context.Background(), rep, TicketListFilter{Mine: "reporter"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	assigned, err := svc.ListTickets(context.Background(), tech, TicketListFilter{Mine: "assignee"})
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, first.ID, assigned[0].ID)

	// an unknown mine value is not a license to read everything
	_, err = svc.ListTickets(context.Background(), rep, TicketListFilter{Mine: "bogus"})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	// a bare assignee filter only scopes the admin or the assignee
	_, err = svc.ListTickets(context.Background(), rep, TicketListFilter{AssigneeID: strPtr(tech.ID)})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))

	byAssignee, err := svc.ListTickets(context.Background(), admin, TicketListFilter{AssigneeID: strPtr(tech.ID)})
	require.NoError(t, err)
	require.Len(t, byAssignee, 1)
	assert.Equal(t, first.ID, byAssignee[0].ID)

	ownQueue, err := svc.ListTickets(context.Background(), tech, TicketListFilter{AssigneeID: strPtr(tech.ID)})
	require.NoError(t, err)
	require.Len(t, ownQueue, 1)
}

func mustChanges(t *testing.T, actor *domain.User, ticket *domain.Ticket, req TicketUpdateRequest) repository.TicketChangeSet {
	t.Helper()
	changes, err := EvaluateTicketUpdate(actor, ticket, req)
	require.NoError(t, err)
	return changes
}

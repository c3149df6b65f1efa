package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
	"github.com/spec-kit/campus-helpdesk/internal/repository"
	"github.com/spec-kit/campus-helpdesk/internal/worker"
)

// fakeTicketRepo is an in-memory TicketRepository.
type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	nextID  int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	ticket.ID = fmt.Sprintf("ticket-%03d", r.nextID)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) ApplyChanges(ctx context.Context, id string, changes repository.TicketChangeSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if changes.Status != nil {
		ticket.Status = *changes.Status
	}
	if changes.Priority != nil {
		ticket.Priority = *changes.Priority
	}
	if changes.AssigneeSet {
		ticket.AssigneeID = changes.AssigneeID
	}
	ticket.UpdatedAt = time.Now()
	return nil
}

func (r *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.ReporterID != nil && ticket.ReporterID != *filter.ReporterID {
			continue
		}
		if filter.AssigneeID != nil && !ticket.AssignedTo(*filter.AssigneeID) {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && ticket.Priority != *filter.Priority {
			continue
		}
		if filter.Category != nil && ticket.Category != *filter.Category {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

// fakeActivityRepo is an in-memory ActivityRepository.
type fakeActivityRepo struct {
	mu         sync.Mutex
	activities []domain.Activity
	nextID     int
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{}
}

func (r *fakeActivityRepo) Create(ctx context.Context, activity *domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	activity.ID = fmt.Sprintf("activity-%03d", r.nextID)
	activity.CreatedAt = time.Now()
	r.activities = append(r.activities, *activity)
	return nil
}

func (r *fakeActivityRepo) ListByTicket(ctx context.Context, ticketID string, kind *domain.ActivityKind) ([]domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Activity
	for _, activity := range r.activities {
		if activity.TicketID != ticketID {
			continue
		}
		if kind != nil && activity.Kind != *kind {
			continue
		}
		result = append(result, activity)
	}
	return result, nil
}

func (r *fakeActivityRepo) FindOneByTicketAndKind(ctx context.Context, ticketID string, kind domain.ActivityKind) (*domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.activities {
		if r.activities[i].TicketID == ticketID && r.activities[i].Kind == kind {
			clone := r.activities[i]
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeActivityRepo) byKind(kind domain.ActivityKind) []domain.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Activity
	for _, activity := range r.activities {
		if activity.Kind == kind {
			result = append(result, activity)
		}
	}
	return result
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]*domain.User{}}
	for _, user := range users {
		clone := *user
		repo.users[user.ID] = &clone
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%03d", r.nextID)
	}
	user.CreatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) UpdatePreferences(ctx context.Context, id string, prefs domain.NotificationPreferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	copied := prefs
	user.Preferences = &copied
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.LastLoginAt = &at
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	return r.List(ctx, &role)
}

func (r *fakeUserRepo) List(ctx context.Context, role *domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.users {
		if role != nil && user.Role != *role {
			continue
		}
		result = append(result, *user)
	}
	return result, nil
}

// recordingNotifier captures enqueued notices instead of dispatching them.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []worker.Notice
}

func (n *recordingNotifier) Enqueue(notice worker.Notice) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return true
}

func (n *recordingNotifier) byType(t domain.NotificationType) []worker.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	var result []worker.Notice
	for _, notice := range n.notices {
		if notice.Type == t {
			result = append(result, notice)
		}
	}
	return result
}

// test users

func reporterUser() *domain.User {
	return &domain.User{ID: "rep-1", Name: "Asha Verma", Email: "asha@campus.edu", Role: domain.RoleReporter}
}

func technicianUser() *domain.User {
	return &domain.User{ID: "tech-1", Name: "Ravi Kumar", Email: "ravi@campus.edu", Role: domain.RoleTechnician}
}

func adminUser() *domain.User {
	return &domain.User{ID: "admin-1", Name: "Meera Nair", Email: "meera@campus.edu", Role: domain.RoleAdmin}
}

func strPtr(s string) *string { return &s }

func statusPtr(s domain.TicketStatus) *domain.TicketStatus { return &s }

func priorityPtr(p domain.TicketPriority) *domain.TicketPriority { return &p }

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

// UserDependencies bundles the collaborators of UserService.
type UserDependencies struct {
	Users    repository.UserRepository
	Notifier worker.Notifier
	Broker   *events.Broker
	Logger   *zap.Logger
}

// UserService covers directory listing, profile updates, role management
// and notification preferences.
type UserService struct {
	users    repository.UserRepository
	notifier worker.Notifier
	broker   *events.Broker
	logger   *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:    deps.Users,
		notifier: deps.Notifier,
		broker:   deps.Broker,
		logger:   deps.Logger,
	}
}

// UserPatch carries optional profile fields. Nil fields are untouched.
type UserPatch struct {
	Name       *string
	Email      *string
	Department *string
}

// PreferencesPatch carries optional notification preference flags. Nil
// fields keep their current value.
type PreferencesPatch struct {
	EmailEnabled          *bool
	TicketCreated         *bool
	TicketAssigned        *bool
	TicketStatusChanged   *bool
	TicketPriorityChanged *bool
	NewComment            *bool
	ProfileUpdated        *bool
}

// ListUsers returns the directory, optionally narrowed to one role.
// Admin only.
func (s *UserService) ListUsers(ctx context.Context, actor *domain.User, role *domain.Role) ([]domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may list users")
	}
	if role != nil && !domain.ValidRole(*role) {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *role})
	}
	return s.users.List(ctx, role)
}

// GetUser fetches one user. Admins may read anyone; everyone else only
// themselves.
func (s *UserService) GetUser(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if actor.Role != domain.RoleAdmin && actor.ID != id {
		return nil, apperrors.NewForbidden("cannot read other users")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser applies a profile patch. Admins may edit anyone; everyone
// else only themselves. A successful change queues a profile-updated
// notification for the edited user.
func (s *UserService) UpdateUser(ctx context.Context, actor *domain.User, id string, patch UserPatch) (*domain.User, error) {
	if actor.Role != domain.RoleAdmin && actor.ID != id {
		return nil, apperrors.NewForbidden("cannot edit other users")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}

	changed := map[string]any{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", nil)
		}
		if name != user.Name {
			user.Name = name
			changed["name"] = name
		}
	}
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if email == "" {
			return nil, apperrors.NewValidationError("email cannot be empty", nil)
		}
		if email != user.Email {
			if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing.ID != user.ID {
				return nil, apperrors.NewConflict("email already registered", nil)
			}
			user.Email = email
			changed["email"] = email
		}
	}
	if patch.Department != nil {
		dept := strings.TrimSpace(*patch.Department)
		if dept != "" && !domain.ValidDepartment(dept) {
			return nil, apperrors.NewValidationError("unknown department", map[string]any{"department": dept})
		}
		if dept != user.Department {
			user.Department = dept
			changed["department"] = dept
		}
	}

	if len(changed) == 0 {
		return user, nil
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.notifier.Enqueue(worker.Notice{
		Type:    domain.NotificationProfileUpdated,
		Actor:   actor,
		Target:  user,
		Changes: changed,
	})
	s.publish(events.Event{Channel: events.ChannelUsers, ID: user.ID, Fields: changed})
	return user, nil
}

// UpdateRole changes a user's role. Admin only. The affected user is
// notified the same way a profile edit would notify them.
func (s *UserService) UpdateRole(ctx context.Context, actor *domain.User, id string, role domain.Role) (*domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may change roles")
	}
	if !domain.ValidRole(role) {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}

	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	changed := map[string]any{"role": role}
	s.notifier.Enqueue(worker.Notice{
		Type:    domain.NotificationProfileUpdated,
		Actor:   actor,
		Target:  user,
		Changes: changed,
	})
	s.publish(events.Event{Channel: events.ChannelUsers, ID: user.ID, Fields: changed})
	return user, nil
}

// GetPreferences returns the caller's stored preferences, falling back to
// the all-enabled defaults when none were ever saved.
func (s *UserService) GetPreferences(ctx context.Context, actor *domain.User) (domain.NotificationPreferences, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return domain.NotificationPreferences{}, err
	}
	if user.Preferences == nil {
		return domain.DefaultNotificationPreferences(), nil
	}
	return *user.Preferences, nil
}

// UpdatePreferences merges a partial patch over the caller's current
// preferences and persists the result.
func (s *UserService) UpdatePreferences(ctx context.Context, actor *domain.User, patch PreferencesPatch) (domain.NotificationPreferences, error) {
	current, err := s.GetPreferences(ctx, actor)
	if err != nil {
		return domain.NotificationPreferences{}, err
	}

	if patch.EmailEnabled != nil {
		current.EmailEnabled = *patch.EmailEnabled
	}
	if patch.TicketCreated != nil {
		current.TicketCreated = *patch.TicketCreated
	}
	if patch.TicketAssigned != nil {
		current.TicketAssigned = *patch.TicketAssigned
	}
	if patch.TicketStatusChanged != nil {
		current.TicketStatusChanged = *patch.TicketStatusChanged
	}
	if patch.TicketPriorityChanged != nil {
		current.TicketPriorityChanged = *patch.TicketPriorityChanged
	}
	if patch.NewComment != nil {
		current.NewComment = *patch.NewComment
	}
	if patch.ProfileUpdated != nil {
		current.ProfileUpdated = *patch.ProfileUpdated
	}

	if err := s.users.UpdatePreferences(ctx, actor.ID, current); err != nil {
		return domain.NotificationPreferences{}, apperrors.MapError(err)
	}
	return current, nil
}

func (s *UserService) publish(event events.Event) {
	if s.broker == nil {
		return
	}
	s.broker.Publish(event)
}

package service

import (
	"github.com/spec-kit/campus-helpdesk/internal/domain"
	"github.com/spec-kit/campus-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/campus-helpdesk/pkg/util/errorutil"
)

// TicketUpdateRequest is the caller's requested field updates, before any
// permission filtering. AssigneeSet distinguishes "clear the assignee" from
// "field not present in the request".
type TicketUpdateRequest struct {
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	AssigneeSet bool
	AssigneeID  *string
}

// EvaluateTicketUpdate is the single policy decision point for ticket
// mutation. Given the acting user, the current ticket snapshot and the
// requested changes, it returns the permitted change set or the reason the
// request is rejected. All role branching for ticket writes lives here.
//
// Rules:
//   - only admins touch priority and assignee
//   - closing requires an admin and a currently resolved ticket
//   - technicians change status only on tickets assigned to them, and never
//     to closed
//   - reporters cannot mutate any field
//   - a request whose permitted set comes out empty is a validation error,
//     distinct from forbidden
func EvaluateTicketUpdate(actor *domain.User, ticket *domain.Ticket, req TicketUpdateRequest) (repository.TicketChangeSet, error) {
	changes := repository.TicketChangeSet{}

	if req.Status != nil && !domain.ValidStatus(*req.Status) {
		return changes, apperrors.NewValidationError("invalid status", map[string]any{"status": *req.Status})
	}
	if req.Priority != nil && !domain.ValidPriority(*req.Priority) {
		return changes, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *req.Priority})
	}

	switch actor.Role {
	case domain.RoleAdmin:
		if req.Priority != nil {
			changes.Priority = req.Priority
		}
		if req.AssigneeSet {
			changes.AssigneeSet = true
			changes.AssigneeID = req.AssigneeID
		}
		if req.Status != nil {
			if *req.Status == domain.TicketStatusClosed && ticket.Status != domain.TicketStatusResolved {
				return repository.TicketChangeSet{}, apperrors.NewValidationError(
					"ticket can be closed by admin only after it is resolved", nil)
			}
			changes.Status = req.Status
		}

	case domain.RoleTechnician:
		if req.Status != nil {
			if *req.Status == domain.TicketStatusClosed {
				return repository.TicketChangeSet{}, apperrors.NewForbidden("technicians cannot close tickets")
			}
			if !ticket.AssignedTo(actor.ID) {
				return repository.TicketChangeSet{}, apperrors.NewForbidden("ticket is not assigned to you")
			}
			changes.Status = req.Status
		}
		// priority and assignee requests are silently filtered; if nothing
		// remains the empty-set error below reports it

	case domain.RoleReporter:
		// reporters are read-only on tickets
	}

	if changes.Empty() {
		return changes, apperrors.NewValidationError("no permitted changes", nil)
	}
	return changes, nil
}

// ActivityKindFor classifies a permitted change set for the activity log.
// When several fields change in one request, status wins over priority wins
// over assignment; the full delta is still stored in the payload.
func ActivityKindFor(changes repository.TicketChangeSet) domain.ActivityKind {
	switch {
	case changes.Status != nil:
		return domain.ActivityUpdateStatus
	case changes.Priority != nil:
		return domain.ActivityUpdatePriority
	default:
		return domain.ActivityAssign
	}
}

// CanReadTicket reports whether the user may view the ticket and its
// activity thread: admins, the reporter, or the current assignee.
func CanReadTicket(user *domain.User, ticket *domain.Ticket) bool {
	if user.Role == domain.RoleAdmin {
		return true
	}
	if ticket.ReporterID == user.ID {
		return true
	}
	return ticket.AssignedTo(user.ID)
}

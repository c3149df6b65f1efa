package dto

import "github.com/spec-kit/campus-helpdesk/internal/domain"

// PatchUserRequest payload. Nil fields are left untouched.
type PatchUserRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=120"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Department *string `json:"department" validate:"omitempty,max=120"`
}

// PatchRoleRequest payload.
type PatchRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=reporter technician admin"`
}

// PatchPreferencesRequest payload. Nil flags keep their stored value.
type PatchPreferencesRequest struct {
	EmailEnabled          *bool `json:"emailEnabled"`
	TicketCreated         *bool `json:"ticketCreated"`
	TicketAssigned        *bool `json:"ticketAssigned"`
	TicketStatusChanged   *bool `json:"ticketStatusChanged"`
	TicketPriorityChanged *bool `json:"ticketPriorityChanged"`
	NewComment            *bool `json:"newComment"`
	ProfileUpdated        *bool `json:"profileUpdated"`
}

// PreferencesResponse mirrors the stored preference flags.
type PreferencesResponse struct {
	EmailEnabled          bool `json:"emailEnabled"`
	TicketCreated         bool `json:"ticketCreated"`
	TicketAssigned        bool `json:"ticketAssigned"`
	TicketStatusChanged   bool `json:"ticketStatusChanged"`
	TicketPriorityChanged bool `json:"ticketPriorityChanged"`
	NewComment            bool `json:"newComment"`
	ProfileUpdated        bool `json:"profileUpdated"`
}

// NewPreferencesResponse maps a preference set.
func NewPreferencesResponse(p domain.NotificationPreferences) PreferencesResponse {
	return PreferencesResponse{
		EmailEnabled:          p.EmailEnabled,
		TicketCreated:         p.TicketCreated,
		TicketAssigned:        p.TicketAssigned,
		TicketStatusChanged:   p.TicketStatusChanged,
		TicketPriorityChanged: p.TicketPriorityChanged,
		NewComment:            p.NewComment,
		ProfileUpdated:        p.ProfileUpdated,
	}
}

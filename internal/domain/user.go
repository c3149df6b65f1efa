package domain

import "time"

// Role enumerates the three fixed helpdesk roles.
type Role string

const (
	RoleReporter   Role = "reporter"
	RoleTechnician Role = "technician"
	RoleAdmin      Role = "admin"
)

// ValidRole reports whether the value is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleReporter, RoleTechnician, RoleAdmin:
		return true
	}
	return false
}

// NotificationPreferences holds per-user email opt-outs. EmailEnabled is the
// master switch; the remaining flags map one-to-one onto notification types.
type NotificationPreferences struct {
	EmailEnabled          bool `json:"emailEnabled"`
	TicketCreated         bool `json:"ticketCreated"`
	TicketAssigned        bool `json:"ticketAssigned"`
	TicketStatusChanged   bool `json:"ticketStatusChanged"`
	TicketPriorityChanged bool `json:"ticketPriorityChanged"`
	NewComment            bool `json:"newComment"`
	ProfileUpdated        bool `json:"profileUpdated"`
}

// DefaultNotificationPreferences returns the all-enabled preference set used
// when a user has never saved preferences.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		EmailEnabled:          true,
		TicketCreated:         true,
		TicketAssigned:        true,
		TicketStatusChanged:   true,
		TicketPriorityChanged: true,
		NewComment:            true,
		ProfileUpdated:        true,
	}
}

// Allows reports whether the preference set permits an email of the given
// type. The master switch overrides the per-type flags.
func (p NotificationPreferences) Allows(t NotificationType) bool {
	if !p.EmailEnabled {
		return false
	}
	switch t {
	case NotificationTicketCreated:
		return p.TicketCreated
	case NotificationTicketUpdated:
		return p.TicketStatusChanged
	case NotificationTicketAssigned:
		return p.TicketAssigned
	case NotificationCommentAdded:
		return p.NewComment
	case NotificationProfileUpdated:
		return p.ProfileUpdated
	}
	return true
}

// User is the identity record for reporters, technicians and admins.
// Preferences is nil when the user never saved notification preferences,
// which means "send everything".
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Department   string
	Preferences  *NotificationPreferences
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// WantsEmail resolves the preference gating for a notification type,
// defaulting to send when no preferences are stored.
func (u *User) WantsEmail(t NotificationType) bool {
	if u.Preferences == nil {
		return true
	}
	return u.Preferences.Allows(t)
}

package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. The lifecycle is
// one-way: new -> in_progress -> resolved -> closed, with no reopen.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "new"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// ValidStatus reports whether the value is a known lifecycle state.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusNew, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// ValidPriority reports whether the value is a known priority.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is the mutable work item tracked through the fixed lifecycle.
// ReporterID is fixed at creation; AssigneeID is nil until an admin assigns
// a technician and may be cleared or changed by admins only.
type Ticket struct {
	ID          string
	Title       string
	Description string
	IssuerName  string
	Category    string
	SubCategory string
	Department  string
	Room        string
	Priority    TicketPriority
	Status      TicketStatus
	ReporterID  string
	AssigneeID  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AssignedTo reports whether the ticket is currently assigned to the user.
func (t *Ticket) AssignedTo(userID string) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// ShortID returns the trailing six characters of the id, used in email
// subjects and UI labels.
func (t *Ticket) ShortID() string {
	if len(t.ID) <= 6 {
		return t.ID
	}
	return t.ID[len(t.ID)-6:]
}

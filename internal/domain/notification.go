package domain

import "time"

// NotificationType enumerates domain events that may produce an email.
type NotificationType string

const (
	NotificationTicketCreated  NotificationType = "ticket_created"
	NotificationTicketUpdated  NotificationType = "ticket_updated"
	NotificationTicketAssigned NotificationType = "ticket_assigned"
	NotificationCommentAdded   NotificationType = "comment_added"
	NotificationProfileUpdated NotificationType = "profile_updated"
)

// ValidNotificationType reports whether the value is a known event type.
func ValidNotificationType(t NotificationType) bool {
	switch t {
	case NotificationTicketCreated, NotificationTicketUpdated, NotificationTicketAssigned,
		NotificationCommentAdded, NotificationProfileUpdated:
		return true
	}
	return false
}

// NotificationStatus is the durable outcome of one delivery attempt.
type NotificationStatus string

const (
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
	NotificationSkipped NotificationStatus = "skipped"
)

// ValidNotificationStatus reports whether the value is a known outcome.
func ValidNotificationStatus(s NotificationStatus) bool {
	switch s {
	case NotificationSent, NotificationFailed, NotificationSkipped:
		return true
	}
	return false
}

// Notification is the append-only audit record of an attempted email.
// Written only by the notification dispatcher, never mutated.
type Notification struct {
	ID             string
	UserID         string
	TicketID       *string
	Type           NotificationType
	RecipientEmail string
	Subject        string
	Status         NotificationStatus
	Error          *string
	SentAt         time.Time
	CreatedAt      time.Time
}

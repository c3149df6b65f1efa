package dto

import (
	"time"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
)

// NotificationResponse is one row of the delivery audit log.
type NotificationResponse struct {
	ID             string                    `json:"id"`
	UserID         string                    `json:"user_id"`
	TicketID       *string                   `json:"ticket_id,omitempty"`
	Type           domain.NotificationType   `json:"type"`
	RecipientEmail string                    `json:"recipient_email"`
	Subject        string                    `json:"subject"`
	Status         domain.NotificationStatus `json:"status"`
	Error          *string                   `json:"error,omitempty"`
	SentAt         time.Time                 `json:"sent_at"`
}

// NewNotificationResponse maps an audit record.
func NewNotificationResponse(n domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:             n.ID,
		UserID:         n.UserID,
		TicketID:       n.TicketID,
		Type:           n.Type,
		RecipientEmail: n.RecipientEmail,
		Subject:        n.Subject,
		Status:         n.Status,
		Error:          n.Error,
		SentAt:         n.SentAt,
	}
}

package dto

import (
	"time"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
	"github.com/spec-kit/campus-helpdesk/internal/service"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"required,min=1"`
	IssuerName  string `json:"issuer_name" validate:"omitempty,max=120"`
	Category    string `json:"category" validate:"required"`
	SubCategory string `json:"sub_category" validate:"required"`
	Department  string `json:"department" validate:"required"`
	Room        string `json:"room" validate:"omitempty,max=60"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

// PatchTicketRequest payload. Every field is optional; the absent assignee
// key is distinguished from an explicit null by AssigneeSet.
type PatchTicketRequest struct {
	Status     *string `json:"status" validate:"omitempty,oneof=new in_progress resolved closed"`
	Priority   *string `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssigneeID *string `json:"assignee_id"`

	AssigneeSet bool `json:"-"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

// SubmitFeedbackRequest payload.
type SubmitFeedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

// TicketResponse is the public shape of a ticket.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	IssuerName  string                `json:"issuer_name,omitempty"`
	Category    string                `json:"category"`
	SubCategory string                `json:"sub_category"`
	Department  string                `json:"department"`
	Room        string                `json:"room,omitempty"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	ReporterID  string                `json:"reporter_id"`
	AssigneeID  *string               `json:"assignee_id"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		IssuerName:  ticket.IssuerName,
		Category:    ticket.Category,
		SubCategory: ticket.SubCategory,
		Department:  ticket.Department,
		Room:        ticket.Room,
		Priority:    ticket.Priority,
		Status:      ticket.Status,
		ReporterID:  ticket.ReporterID,
		AssigneeID:  ticket.AssigneeID,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

// CommentResponse is one display-ready comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	ActorName string    `json:"actor_name"`
	System    bool      `json:"system"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCommentResponse maps a resolved comment.
func NewCommentResponse(comment service.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		Message:   comment.Message,
		ActorName: comment.ActorName,
		System:    comment.System,
		CreatedAt: comment.CreatedAt,
	}
}

// FeedbackResponse is the reporter's rating on a ticket.
type FeedbackResponse struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFeedbackResponse maps resolved feedback.
func NewFeedbackResponse(fb *service.Feedback) FeedbackResponse {
	return FeedbackResponse{
		Rating:    fb.Rating,
		Comment:   fb.Comment,
		CreatedAt: fb.CreatedAt,
	}
}

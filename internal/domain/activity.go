package domain

import "time"

// ActivityKind classifies an append-only event against a ticket.
type ActivityKind string

const (
	ActivityCreate         ActivityKind = "create"
	ActivityAssign         ActivityKind = "assign"
	ActivityUpdateStatus   ActivityKind = "update_status"
	ActivityUpdatePriority ActivityKind = "update_priority"
	ActivityComment        ActivityKind = "comment"
	ActivityAttach         ActivityKind = "attach"
	ActivityFeedback       ActivityKind = "feedback"
)

// Activity is an immutable log entry tied to a ticket. Payload carries the
// kind-specific data: the comment message, the field delta of a mutation, or
// the feedback rating and comment.
type Activity struct {
	ID        string
	TicketID  string
	ActorID   string
	Kind      ActivityKind
	Payload   map[string]any
	CreatedAt time.Time
}

// Message returns the comment text stored in the payload, if any.
func (a *Activity) Message() string {
	if a.Payload == nil {
		return ""
	}
	if msg, ok := a.Payload["message"].(string); ok {
		return msg
	}
	return ""
}

// SystemGenerated reports whether the entry was recorded by the system
// rather than typed by a human, such as the closure comment added when an
// admin closes a ticket.
func (a *Activity) SystemGenerated() bool {
	if a.Payload == nil {
		return false
	}
	system, ok := a.Payload["system"].(bool)
	return ok && system
}

package events

// Channel names a live update stream. Subscribers receive events from every
// channel and route them by name; ordering is preserved per channel only.
type Channel string

const (
	ChannelTickets Channel = "tickets"
	ChannelUsers   Channel = "users"
)

// Event is a change notice pushed to connected viewers. It carries just
// enough for a client to refetch: the entity id and the fields that changed.
type Event struct {
	Channel Channel        `json:"-"`
	ID      string         `json:"id"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// Name returns the SSE event name for the channel.
func (c Channel) Name() string {
	return string(c) + ":update"
}

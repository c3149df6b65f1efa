package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
)

func sampleContext() TicketContext {
	return TicketContext{
		ShortID:     "abc123",
		IssuerName:  "Asha Verma",
		Category:    "Hardware",
		SubCategory: "Printer",
		Department:  "CSE",
		Room:        "Lab 204",
		Priority:    domain.TicketPriorityMedium,
		Status:      domain.TicketStatusNew,
		Description: "The lab printer stopped printing.",
		TicketURL:   "http://helpdesk.local/tickets/ticket-abc123",
	}
}

func TestTicketCreatedMessage(t *testing.T) {
	msg, err := TicketCreated(sampleContext())
	require.NoError(t, err)

	assert.Equal(t, "New Ticket #abc123 - Hardware / Printer", msg.Subject)
	assert.Contains(t, msg.HTML, "#abc123")
	assert.Contains(t, msg.HTML, "Lab 204")
	assert.Contains(t, msg.HTML, "http://helpdesk.local/tickets/ticket-abc123")
	assert.Contains(t, msg.Text, "Asha Verma")
	assert.NotContains(t, msg.Text, "<div")
	assert.Contains(t, msg.HTML, "Campus Helpdesk - automated notification")
}

func TestTicketUpdatedMessageListsChanges(t *testing.T) {
	msg, err := TicketUpdated(sampleContext(), "Meera Nair", map[string]any{"status": "in_progress"})
	require.NoError(t, err)

	assert.Equal(t, "Ticket #abc123 Updated", msg.Subject)
	assert.Contains(t, msg.Text, "status")
	assert.Contains(t, msg.Text, "Meera Nair")
}

func TestTicketAssignedMessage(t *testing.T) {
	msg, err := TicketAssigned(sampleContext(), "Ravi Kumar")
	require.NoError(t, err)

	assert.Equal(t, "Ticket #abc123 Assigned to You", msg.Subject)
	assert.Contains(t, msg.Text, "Hi Ravi Kumar")
}

func TestCommentAddedFallsBackToGenericName(t *testing.T) {
	msg, err := CommentAdded(sampleContext(), "", "any update?")
	require.NoError(t, err)

	assert.Contains(t, msg.Text, "User commented")
	assert.Contains(t, msg.Text, "any update?")
}

func TestProfileUpdatedMessage(t *testing.T) {
	msg, err := ProfileUpdated("Asha", "Meera", map[string]any{"name": "Asha V."})
	require.NoError(t, err)

	assert.Equal(t, "Your Profile Has Been Updated", msg.Subject)
	assert.Contains(t, msg.Text, "by Meera")
	assert.Contains(t, msg.Text, "Asha V.")
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "hello world", StripHTML("<p>hello</p> <b>world</b>"))
	assert.Equal(t, "plain", StripHTML("plain"))
}

package mail

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
)

// Message is a rendered email ready for the transport.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// TicketContext carries the ticket fields shared by the ticket templates.
type TicketContext struct {
	ShortID     string
	IssuerName  string
	Category    string
	SubCategory string
	Department  string
	Room        string
	Priority    domain.TicketPriority
	Status      domain.TicketStatus
	Description string
	TicketURL   string
}

const baseStyle = `<style>
  body { margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f3f4f6; }
  .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
  .header { background-color: #2563eb; padding: 24px 20px; text-align: center; color: #ffffff; }
  .content { padding: 24px 20px; color: #374151; }
  .ticket-info { background-color: #f9fafb; border-left: 4px solid #2563eb; padding: 12px; margin: 16px 0; }
  .label { font-weight: 600; display: inline-block; min-width: 110px; }
  .footer { padding: 16px; text-align: center; color: #6b7280; font-size: 12px; }
</style>`

var ticketTmpl = template.Must(template.New("ticket").Parse(baseStyle + `
<div class="container">
  <div class="header"><h1>{{.Heading}}</h1></div>
  <div class="content">
    <p>{{.Intro}}</p>
    <div class="ticket-info">
      <div><span class="label">Ticket:</span> #{{.Ticket.ShortID}}</div>
      <div><span class="label">Issuer:</span> {{.Ticket.IssuerName}}</div>
      <div><span class="label">Category:</span> {{.Ticket.Category}} / {{.Ticket.SubCategory}}</div>
      <div><span class="label">Department:</span> {{.Ticket.Department}}</div>
      <div><span class="label">Location:</span> {{.Ticket.Room}}</div>
      <div><span class="label">Priority:</span> {{.Ticket.Priority}}</div>
      {{if .Ticket.Status}}<div><span class="label">Status:</span> {{.Ticket.Status}}</div>{{end}}
    </div>
    {{if .Detail}}<p>{{.Detail}}</p>{{end}}
    {{if .Ticket.TicketURL}}<p><a href="{{.Ticket.TicketURL}}">View ticket</a></p>{{end}}
  </div>
  <div class="footer">Campus Helpdesk - automated notification</div>
</div>`))

var profileTmpl = template.Must(template.New("profile").Parse(baseStyle + `
<div class="container">
  <div class="header"><h1>Profile Updated</h1></div>
  <div class="content">
    <p>Hi {{.UserName}}, your account profile was updated{{if .UpdatedBy}} by {{.UpdatedBy}}{{end}}.</p>
    {{if .Changes}}<div class="ticket-info">{{range $field, $value := .Changes}}<div><span class="label">{{$field}}:</span> {{$value}}</div>{{end}}</div>{{end}}
    <p>If you did not expect this change, contact the helpdesk team.</p>
  </div>
  <div class="footer">Campus Helpdesk - automated notification</div>
</div>`))

type ticketTmplData struct {
	Heading string
	Intro   string
	Detail  string
	Ticket  TicketContext
}

// TicketCreated renders the email sent when a new ticket is filed.
func TicketCreated(tc TicketContext) (Message, error) {
	return renderTicket(
		fmt.Sprintf("New Ticket #%s - %s / %s", tc.ShortID, tc.Category, tc.SubCategory),
		ticketTmplData{
			Heading: "New Ticket Created",
			Intro:   "A new support ticket has been created and requires attention.",
			Detail:  tc.Description,
			Ticket:  tc,
		})
}

// TicketUpdated renders the email sent when ticket fields change.
func TicketUpdated(tc TicketContext, actorName string, changes map[string]any) (Message, error) {
	detail := ""
	if len(changes) > 0 {
		parts := make([]string, 0, len(changes))
		for field, value := range changes {
			parts = append(parts, fmt.Sprintf("%s → %v", field, value))
		}
		detail = "Changed: " + strings.Join(parts, ", ")
	}
	if actorName != "" {
		detail = strings.TrimSpace(detail + " (by " + actorName + ")")
	}
	return renderTicket(
		fmt.Sprintf("Ticket #%s Updated", tc.ShortID),
		ticketTmplData{
			Heading: "Ticket Updated",
			Intro:   "A ticket you are involved with has been updated.",
			Detail:  detail,
			Ticket:  tc,
		})
}

// TicketAssigned renders the email sent to the new assignee.
func TicketAssigned(tc TicketContext, assigneeName string) (Message, error) {
	return renderTicket(
		fmt.Sprintf("Ticket #%s Assigned to You", tc.ShortID),
		ticketTmplData{
			Heading: "Ticket Assigned",
			Intro:   fmt.Sprintf("Hi %s, the following ticket has been assigned to you.", assigneeName),
			Detail:  tc.Description,
			Ticket:  tc,
		})
}

// CommentAdded renders the email sent when a new comment lands on a ticket.
func CommentAdded(tc TicketContext, commenterName, comment string) (Message, error) {
	if commenterName == "" {
		commenterName = "User"
	}
	return renderTicket(
		fmt.Sprintf("New Comment on Ticket #%s", tc.ShortID),
		ticketTmplData{
			Heading: "New Comment",
			Intro:   fmt.Sprintf("%s commented on a ticket you are involved with.", commenterName),
			Detail:  comment,
			Ticket:  tc,
		})
}

// ProfileUpdated renders the email sent to a user whose profile changed.
func ProfileUpdated(userName, updatedBy string, changes map[string]any) (Message, error) {
	var sb strings.Builder
	err := profileTmpl.Execute(&sb, struct {
		UserName  string
		UpdatedBy string
		Changes   map[string]any
	}{UserName: userName, UpdatedBy: updatedBy, Changes: changes})
	if err != nil {
		return Message{}, err
	}
	html := sb.String()
	return Message{Subject: "Your Profile Has Been Updated", HTML: html, Text: StripHTML(html)}, nil
}

func renderTicket(subject string, data ticketTmplData) (Message, error) {
	var sb strings.Builder
	if err := ticketTmpl.Execute(&sb, data); err != nil {
		return Message{}, err
	}
	html := sb.String()
	return Message{Subject: subject, HTML: html, Text: StripHTML(html)}, nil
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripHTML derives a plain-text fallback body from rendered HTML.
func StripHTML(html string) string {
	text := tagPattern.ReplaceAllString(html, " ")
	return strings.Join(strings.Fields(text), " ")
}

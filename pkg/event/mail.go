package event

import "time"

// Mail routing keys on the mail exchange.
const (
	MailContactAdmin      = "mail.contact_admin"
	MailContactAck        = "mail.contact_ack"
	MailWelcome           = "mail.welcome"
	MailOrderConfirmation = "mail.order_confirmation"
	MailOrderStatus       = "mail.order_status"
	MailOrderReminder     = "mail.order_reminder"
	MailWeeklyReport      = "mail.weekly_report"
	MailChecklistAssigned = "mail.checklist_assigned"
	MailDeliveryIssue     = "mail.delivery_issue"
)

// MailMessage is a rendered plain text mail job. Order is set for mails that need an
// invoice or a tracking code.
type MailMessage struct {
	Kind       string         `json:"kind"`
	To         []string       `json:"to"`
	ReplyTo    string         `json:"reply_to,omitempty"`
	Subject    string         `json:"subject"`
	Body       string         `json:"body"`
	Order      *OrderSnapshot `json:"order,omitempty"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
}

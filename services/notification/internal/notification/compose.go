package notification

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/services/notification/internal/invoice"
	"github.com/appetiteclub/catering/services/notification/internal/mailer"
)

var (
	ErrUnknownKind = errors.New("unknown mail kind")
	ErrInvalid     = errors.New("invalid mail")
)

var kinds = map[string]bool{
	event.MailContactAdmin:      true,
	event.MailContactAck:        true,
	event.MailWelcome:           true,
	event.MailOrderConfirmation: true,
	event.MailOrderStatus:       true,
	event.MailOrderReminder:     true,
	event.MailWeeklyReport:      true,
	event.MailChecklistAssigned: true,
	event.MailDeliveryIssue:     true,
}

// Composer turns queued mail jobs into deliverable mails.
type Composer struct {
	from    string
	siteURL string
	now     func() time.Time
}

func NewComposer(from, siteURL string) *Composer {
	return &Composer{from: from, siteURL: strings.TrimRight(siteURL, "/"), now: time.Now}
}

func (c *Composer) TrackingURL(number string) string {
	return c.siteURL + "/track/" + number
}

// Compose validates msg. An order confirmation carrying its order gets the PDF invoice
// attached and the tracking QR code embedded.
func (c *Composer) Compose(msg event.MailMessage) (mailer.Mail, error) {
	if !kinds[msg.Kind] {
		return mailer.Mail{}, fmt.Errorf("%w: %q", ErrUnknownKind, msg.Kind)
	}
	if len(msg.To) == 0 {
		return mailer.Mail{}, fmt.Errorf("%w: %s has no recipient", ErrInvalid, msg.Kind)
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return mailer.Mail{}, fmt.Errorf("%w: %s has no subject", ErrInvalid, msg.Kind)
	}

	m := mailer.Mail{
		From:    c.from,
		To:      msg.To,
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		Body:    msg.Body,
	}
	if msg.Kind != event.MailOrderConfirmation || msg.Order == nil {
		return m, nil
	}

	o := *msg.Order
	url := c.TrackingURL(o.Number)
	pdf, err := invoice.Render(o, url, c.now())
	if err != nil {
		return mailer.Mail{}, err
	}
	qr, err := invoice.TrackingQR(url)
	if err != nil {
		return mailer.Mail{}, err
	}
	m.Attachments = []mailer.Attachment{
		{Name: "facture_" + o.Number + ".pdf", Data: pdf},
		{Name: "suivi_" + o.Number + ".png", Data: qr, Inline: true},
	}
	return m, nil
}

// Package mailer delivers composed mails over SMTP.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/wneessen/go-mail"
)

// ErrPermanent marks a mail that will never be delivered and must not be retried.
var ErrPermanent = errors.New("permanent mail failure")

type Attachment struct {
	Name string
	Data []byte
	// Inline parts are embedded in the message instead of attached.
	Inline bool
}

type Mail struct {
	From        string
	To          []string
	ReplyTo     string
	Subject     string
	Body        string
	Attachments []Attachment
}

type Sender interface {
	Send(ctx context.Context, m Mail) error
}

// Message builds the MIME message of m. Address errors are permanent.
func Message(m Mail) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, fmt.Errorf("%w: from %q: %v", ErrPermanent, m.From, err)
	}
	if err := msg.To(m.To...); err != nil {
		return nil, fmt.Errorf("%w: to %v: %v", ErrPermanent, m.To, err)
	}
	if m.ReplyTo != "" {
		if err := msg.ReplyTo(m.ReplyTo); err != nil {
			return nil, fmt.Errorf("%w: reply-to %q: %v", ErrPermanent, m.ReplyTo, err)
		}
	}
	msg.Subject(m.Subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, m.Body)

	for _, a := range m.Attachments {
		var err error
		if a.Inline {
			err = msg.EmbedReader(a.Name, bytes.NewReader(a.Data))
		} else {
			err = msg.AttachReader(a.Name, bytes.NewReader(a.Data))
		}
		if err != nil {
			return nil, fmt.Errorf("attach %s: %w", a.Name, err)
		}
	}
	return msg, nil
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// TLS requires STARTTLS instead of using it opportunistically.
	TLS bool
}

type SMTPSender struct {
	client *mail.Client
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	policy := mail.TLSOpportunistic
	if cfg.TLS {
		policy = mail.TLSMandatory
	}
	opts := []mail.Option{mail.WithPort(cfg.Port), mail.WithTLSPolicy(policy)}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client for %s: %w", cfg.Host, err)
	}
	return &SMTPSender{client: client}, nil
}

// Send delivers m. Rejections the server reports as permanent wrap ErrPermanent,
// anything else is worth retrying.
func (s *SMTPSender) Send(ctx context.Context, m Mail) error {
	msg, err := Message(m)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		var sendErr *mail.SendError
		if errors.As(err, &sendErr) && !sendErr.IsTemp() {
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		}
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// LogSender writes mails to the log, for environments without SMTP.
type LogSender struct {
	logger apt.Logger
}

func NewLogSender(logger apt.Logger) *LogSender {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &LogSender{logger: logger}
}

func (l *LogSender) Send(ctx context.Context, m Mail) error {
	if _, err := Message(m); err != nil {
		return err
	}
	names := make([]string, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		names = append(names, a.Name)
	}
	l.logger.Info("mail not sent, no smtp host configured",
		"to", strings.Join(m.To, ","),
		"subject", m.Subject,
		"attachments", strings.Join(names, ","),
	)
	return nil
}

// SenderFromConfig uses SMTP when mail.smtp.host is set and logs mails otherwise.
func SenderFromConfig(config *apt.Config, logger apt.Logger) (Sender, error) {
	host, ok := config.GetString("mail.smtp.host")
	if !ok || host == "" {
		return NewLogSender(logger), nil
	}
	port, err := strconv.Atoi(config.GetStringOrDef("mail.smtp.port", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid mail.smtp.port: %w", err)
	}
	username, _ := config.GetString("mail.smtp.username")
	password, _ := config.GetString("mail.smtp.password")
	return NewSMTPSender(SMTPConfig{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		TLS:      config.GetStringOrDef("mail.smtp.tls", "false") == "true",
	})
}

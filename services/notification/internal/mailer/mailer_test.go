package mailer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMessage(t *testing.T) {
	m := Mail{
		From:    "Catering <noreply@catering.local>",
		To:      []string{"lea@example.com"},
		ReplyTo: "orders@catering.local",
		Subject: "Order CMD-20250301-000001 received",
		Body:    "Thank you for your order.",
		Attachments: []Attachment{
			{Name: "facture_CMD-20250301-000001.pdf", Data: []byte("%PDF-1.3")},
			{Name: "suivi_CMD-20250301-000001.png", Data: []byte("\x89PNG"), Inline: true},
		},
	}

	msg, err := Message(m)
	if err != nil {
		t.Fatalf("Message() error = %v", err)
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Subject: Order CMD-20250301-000001 received",
		"lea@example.com",
		"orders@catering.local",
		"facture_CMD-20250301-000001.pdf",
		"suivi_CMD-20250301-000001.png",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("message lacks %q", want)
		}
	}
}

func TestMessageInvalidAddresses(t *testing.T) {
	tests := []struct {
		name string
		mail Mail
	}{
		{name: "from", mail: Mail{From: "not an address", To: []string{"lea@example.com"}}},
		{name: "to", mail: Mail{From: "noreply@catering.local", To: []string{"@@"}}},
		{name: "replyTo", mail: Mail{From: "noreply@catering.local", To: []string{"lea@example.com"}, ReplyTo: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Message(tt.mail); !errors.Is(err, ErrPermanent) {
				t.Errorf("Message() error = %v, want ErrPermanent", err)
			}
		})
	}
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(nil)
	ok := Mail{From: "noreply@catering.local", To: []string{"lea@example.com"}, Subject: "Hi"}
	if err := s.Send(context.Background(), ok); err != nil {
		t.Errorf("Send() error = %v", err)
	}
	bad := Mail{From: "noreply@catering.local", To: []string{"@@"}}
	if err := s.Send(context.Background(), bad); !errors.Is(err, ErrPermanent) {
		t.Errorf("Send() error = %v, want ErrPermanent", err)
	}
}

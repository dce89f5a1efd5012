package contact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/pkg/mq"
)

var (
	ErrInvalidInput = errors.New("invalid contact request")
	ErrNotFound     = errors.New("contact submission not found")
)

type Service struct {
	repo       Repo
	mail       mq.MailQueue
	adminEmail string
	now        func() time.Time
}

func NewService(repo Repo, mail mq.MailQueue, adminEmail string) *Service {
	return &Service{repo: repo, mail: mail, adminEmail: adminEmail, now: time.Now}
}

// Submit stores the request then mails the staff and acknowledges the sender.
func (s *Service) Submit(ctx context.Context, in Input) (*Submission, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	sub := in.submission(s.now())
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("store contact submission: %w", err)
	}

	if err := s.mail.Enqueue(ctx, event.MailMessage{
		Kind:    event.MailContactAdmin,
		To:      []string{s.adminEmail},
		ReplyTo: sub.Email,
		Subject: fmt.Sprintf("New contact request: %s", sub.SubjectLabel()),
		Body:    adminBody(sub),
	}); err != nil {
		return nil, fmt.Errorf("enqueue admin notification: %w", err)
	}

	if err := s.mail.Enqueue(ctx, event.MailMessage{
		Kind:    event.MailContactAck,
		To:      []string{sub.Email},
		Subject: "We received your message",
		Body:    ackBody(sub),
	}); err != nil {
		return nil, fmt.Errorf("enqueue acknowledgement: %w", err)
	}

	return sub, nil
}

func (s *Service) List(ctx context.Context, unreadOnly bool) ([]*Submission, error) {
	return s.repo.List(ctx, unreadOnly)
}

func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) (*Submission, error) {
	return s.update(ctx, id, func(sub *Submission) {
		if !sub.Read {
			now := s.now()
			sub.Read = true
			sub.ReadAt = &now
		}
	})
}

// MarkAnswered also marks the submission read.
func (s *Service) MarkAnswered(ctx context.Context, id uuid.UUID) (*Submission, error) {
	return s.update(ctx, id, func(sub *Submission) {
		if !sub.Read {
			now := s.now()
			sub.Read = true
			sub.ReadAt = &now
		}
		sub.Answered = true
	})
}

func (s *Service) update(ctx context.Context, id uuid.UUID, change func(*Submission)) (*Submission, error) {
	sub, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrNotFound
	}
	change(sub)
	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("save contact submission: %w", err)
	}
	return sub, nil
}

func adminBody(s *Submission) string {
	phone := s.Phone
	if phone == "" {
		phone = "-"
	}
	return fmt.Sprintf(`A new contact request was submitted.

Name:    %s
Email:   %s
Phone:   %s
Subject: %s
Date:    %s

%s
`, s.Name, s.Email, phone, s.SubjectLabel(), s.CreatedAt.Format("2006-01-02 15:04"), s.Message)
}

func ackBody(s *Submission) string {
	return fmt.Sprintf(`Hello %s,

Thank you for contacting us about "%s". Our team will get back to you within one business day.

Your message:
%s
`, s.Name, s.SubjectLabel(), s.Message)
}

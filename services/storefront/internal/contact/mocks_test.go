package contact

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/event"
)

type MockRepo struct {
	items map[uuid.UUID]*Submission
	order []uuid.UUID
}

func NewMockRepo() *MockRepo {
	return &MockRepo{items: map[uuid.UUID]*Submission{}}
}

func (m *MockRepo) Create(ctx context.Context, s *Submission) error {
	m.items[s.ID] = s
	m.order = append(m.order, s.ID)
	return nil
}

func (m *MockRepo) Get(ctx context.Context, id uuid.UUID) (*Submission, error) {
	return m.items[id], nil
}

func (m *MockRepo) List(ctx context.Context, unreadOnly bool) ([]*Submission, error) {
	var out []*Submission
	for _, id := range m.order {
		s := m.items[id]
		if unreadOnly && s.Read {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *MockRepo) Save(ctx context.Context, s *Submission) error {
	m.items[s.ID] = s
	return nil
}

type MockMailQueue struct {
	Sent   []event.MailMessage
	FailOn string
}

func (m *MockMailQueue) Enqueue(ctx context.Context, msg event.MailMessage) error {
	if msg.Kind == m.FailOn {
		return errors.New("broker down")
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

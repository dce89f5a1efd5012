package authn

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockPublisher is a mock implementation of events.Publisher for testing
type MockPublisher struct {
	mu        sync.Mutex
	Published map[string][][]byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Published: map[string][][]byte{}}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published[topic] = append(m.Published[topic], msg)
	return nil
}

// MockUserRepo is an in-memory UserRepo.
type MockUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*User

	GetByEmailFunc func(ctx context.Context, email string) (*User, error)
}

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *MockUserRepo) Create(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepo) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[id], nil
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *MockUserRepo) List(ctx context.Context, filter UserFilter) ([]*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*User
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		result = append(result, u)
	}
	return result, nil
}

func (m *MockUserRepo) Save(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

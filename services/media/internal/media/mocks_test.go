package media

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type MockRepo struct {
	mu      sync.Mutex
	objects map[uuid.UUID]*Object
	err     error
}

func NewMockRepo() *MockRepo {
	return &MockRepo{objects: map[uuid.UUID]*Object{}}
}

func (m *MockRepo) Create(ctx context.Context, o *Object) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[o.ID] = o
	return nil
}

func (m *MockRepo) Get(ctx context.Context, id uuid.UUID) (*Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[id], nil
}

func (m *MockRepo) ListByOwner(ctx context.Context, ownerType, ownerID string) ([]*Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Object
	for _, o := range m.objects {
		if o.OwnerType == ownerType && o.OwnerID == ownerID {
			out = append(out, o)
		}
	}
	return out, nil
}

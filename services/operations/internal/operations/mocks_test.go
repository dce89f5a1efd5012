package operations

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/appetiteclub/catering/pkg/event"
)

// MockBackend answers sign-ins from a credential map and dashboards from a path map.
type MockBackend struct {
	mu         sync.Mutex
	users      map[string]*SignInResult
	passwords  map[string]string
	inactive   map[string]bool
	down       bool
	dashboards map[string]interface{}
	fetchErr   error
	fetched    []string
	tokens     []string
}

func NewMockBackend() *MockBackend {
	return &MockBackend{
		users:      map[string]*SignInResult{},
		passwords:  map[string]string{},
		inactive:   map[string]bool{},
		dashboards: map[string]interface{}{},
	}
}

func (m *MockBackend) AddUser(email, password string, result *SignInResult) {
	m.users[email] = result
	m.passwords[email] = password
}

func (m *MockBackend) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	if m.down {
		return nil, errors.New("connection refused")
	}
	res, ok := m.users[email]
	if !ok || m.passwords[email] != password {
		return nil, &StatusError{Code: http.StatusUnauthorized, Message: "Invalid credentials"}
	}
	if m.inactive[email] {
		return nil, &StatusError{Code: http.StatusForbidden, Message: "Account is not active"}
	}
	return res, nil
}

func (m *MockBackend) Fetch(ctx context.Context, service, path, token string) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetched = append(m.fetched, service+" "+path)
	m.tokens = append(m.tokens, token)
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.dashboards[service+" "+path], nil
}

func (m *MockBackend) lastFetch() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.fetched) == 0 {
		return ""
	}
	return m.fetched[len(m.fetched)-1]
}

type MockAuditRepo struct {
	mu      sync.Mutex
	entries []*AuditEntry
	saveErr error
}

func (m *MockAuditRepo) Save(ctx context.Context, entry *AuditEntry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockAuditRepo) Recent(ctx context.Context, limit int) ([]*AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*AuditEntry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *MockAuditRepo) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

// MockStream records the filter it was handed and replays events through it.
type MockStream struct {
	events  []event.DeliveryEvent
	called  bool
	allowed []event.DeliveryEvent
}

func (m *MockStream) Stream(w http.ResponseWriter, r *http.Request, allow func(event.DeliveryEvent) bool) {
	m.called = true
	for _, e := range m.events {
		if allow == nil || allow(e) {
			m.allowed = append(m.allowed, e)
		}
	}
	w.WriteHeader(http.StatusOK)
}

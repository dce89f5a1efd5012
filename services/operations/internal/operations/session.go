package operations

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/appetiteclub/catering/pkg/auth"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Session binds a browser cookie to the access token issued by authn.
type Session struct {
	ID        string
	Token     string
	Principal auth.Principal
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s *Session) Role() string {
	return s.Principal.Role
}

type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	cancel   context.CancelFunc
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Create stores a new session for token. The session never outlives the token.
func (s *SessionStore) Create(id, token string, p auth.Principal, tokenExpiry time.Time) *Session {
	now := s.now()
	expires := now.Add(s.ttl)
	if !tokenExpiry.IsZero() && tokenExpiry.Before(expires) {
		expires = tokenExpiry
	}

	session := &Session{
		ID:        id,
		Token:     token,
		Principal: p,
		CreatedAt: now,
		ExpiresAt: expires,
	}

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	return session
}

func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.now().After(session.ExpiresAt) {
		s.Delete(id)
		return nil, ErrSessionExpired
	}
	return session, nil
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CleanupExpired removes expired sessions and returns how many were dropped.
func (s *SessionStore) CleanupExpired() int {
	now := s.now()
	count := 0

	s.mu.Lock()
	for id, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, id)
			count++
		}
	}
	s.mu.Unlock()

	return count
}

// Start runs the periodic cleanup until Stop.
func (s *SessionStore) Start(ctx context.Context) error {
	cleanupCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired()
			}
		}
	}()

	return nil
}

func (s *SessionStore) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

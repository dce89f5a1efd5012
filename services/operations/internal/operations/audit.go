package operations

import (
	"context"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/auth"
)

const (
	ActionSignIn       = "signin"
	ActionSignInFailed = "signin_failed"
	ActionSignOut      = "signout"
)

// AuditEntry records one console authentication event.
type AuditEntry struct {
	ID         uuid.UUID `json:"id" bson:"_id"`
	UserID     string    `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Email      string    `json:"email" bson:"email"`
	Role       string    `json:"role,omitempty" bson:"role,omitempty"`
	Action     string    `json:"action" bson:"action"`
	Success    bool      `json:"success" bson:"success"`
	Error      string    `json:"error,omitempty" bson:"error,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty" bson:"remote_addr,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

type AuditRepo interface {
	Save(ctx context.Context, entry *AuditEntry) error
	// Recent lists the newest entries first.
	Recent(ctx context.Context, limit int) ([]*AuditEntry, error)
}

// AuditLogger writes audit entries to the log and to the audit repo.
// A failed write is logged and never blocks the caller.
type AuditLogger struct {
	repo   AuditRepo
	logger apt.Logger
	now    func() time.Time
}

func NewAuditLogger(repo AuditRepo, logger apt.Logger) *AuditLogger {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &AuditLogger{repo: repo, logger: logger, now: time.Now}
}

func (a *AuditLogger) Log(ctx context.Context, entry AuditEntry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = a.now().UTC()
	}

	a.logger.Info("audit",
		"user_id", entry.UserID,
		"email", entry.Email,
		"action", entry.Action,
		"success", entry.Success,
		"remote_addr", entry.RemoteAddr,
		"error", entry.Error,
	)

	if a.repo == nil {
		return
	}
	if err := a.repo.Save(ctx, &entry); err != nil {
		a.logger.Error("cannot save audit entry", "action", entry.Action, "error", err)
	}
}

func (a *AuditLogger) LogSignIn(ctx context.Context, p auth.Principal, remoteAddr string) {
	a.Log(ctx, AuditEntry{
		UserID:     p.UserID,
		Email:      p.Email,
		Role:       p.Role,
		Action:     ActionSignIn,
		Success:    true,
		RemoteAddr: remoteAddr,
	})
}

func (a *AuditLogger) LogSignInFailed(ctx context.Context, email, reason, remoteAddr string) {
	a.Log(ctx, AuditEntry{
		Email:      email,
		Action:     ActionSignInFailed,
		Error:      reason,
		RemoteAddr: remoteAddr,
	})
}

func (a *AuditLogger) LogSignOut(ctx context.Context, p auth.Principal, remoteAddr string) {
	a.Log(ctx, AuditEntry{
		UserID:     p.UserID,
		Email:      p.Email,
		Role:       p.Role,
		Action:     ActionSignOut,
		Success:    true,
		RemoteAddr: remoteAddr,
	})
}

func (a *AuditLogger) Recent(ctx context.Context, limit int) ([]*AuditEntry, error) {
	if a.repo == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return a.repo.Recent(ctx, limit)
}

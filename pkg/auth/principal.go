package auth

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/enums/role"
)

type principalKey struct{}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	Name   string `json:"name"`

	// Department is set for kitchen staff.
	Department string `json:"department,omitempty"`
}

func (p Principal) ID() uuid.UUID {
	id, err := uuid.Parse(p.UserID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (p Principal) HasRole(roles ...string) bool {
	return slices.Contains(roles, p.Role)
}

func (p Principal) IsAdmin() bool {
	return p.Role == role.Roles.Admin.Name
}

func (p Principal) IsBackOffice() bool {
	return p.HasRole(role.BackOffice...)
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

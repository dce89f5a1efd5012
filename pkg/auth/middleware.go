package auth

import (
	"net/http"
	"strings"

	"github.com/appetiteclub/apt"
)

// Authenticate attaches the bearer token principal to the request context when present.
// Requests without a token pass through anonymously; RequireRoles enforces presence.
func Authenticate(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				apt.RespondError(w, http.StatusUnauthorized, "Invalid authorization header")
				return
			}

			claims, err := issuer.Parse(strings.TrimSpace(tokenStr))
			if err != nil {
				apt.RespondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := WithPrincipal(r.Context(), Principal{
				UserID: claims.Sub,
				Role:   claims.Role,
				Email:  claims.Email,
				Name:   claims.Name,

				Department: claims.Dept,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFrom(r.Context()); !ok {
			apt.RespondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles rejects anonymous requests with 401 and other roles with 403.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				apt.RespondError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !p.HasRole(roles...) {
				apt.RespondError(w, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

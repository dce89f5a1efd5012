package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	jwt "github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Sub   string `json:"sub"`
	Role  string `json:"role"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Dept  string `json:"dept,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates HS256 access tokens shared by every service.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, issuer: "catering"}
}

// TokenIssuerFromConfig reads auth.jwt.secret and auth.jwt.ttl.
func TokenIssuerFromConfig(config *apt.Config) (*TokenIssuer, error) {
	secret, _ := config.GetString("auth.jwt.secret")
	if secret == "" {
		return nil, errors.New("auth.jwt.secret is required")
	}
	ttl, err := time.ParseDuration(config.GetStringOrDef("auth.jwt.ttl", "12h"))
	if err != nil {
		return nil, fmt.Errorf("invalid auth.jwt.ttl: %w", err)
	}
	return NewTokenIssuer(secret, ttl), nil
}

func (t *TokenIssuer) Issue(p Principal) (string, error) {
	now := time.Now()
	claims := Claims{
		Sub:   p.UserID,
		Role:  p.Role,
		Email: p.Email,
		Name:  p.Name,
		Dept:  p.Department,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

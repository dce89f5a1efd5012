package operations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
)

var ErrUnknownService = errors.New("unknown service")

// StatusError is a non 2xx answer from a backend service.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend answered %d: %s", e.Code, e.Message)
}

// IsStatus reports whether err is a StatusError with code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

type SignInUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
}

func (u SignInUser) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type SignInResult struct {
	User  SignInUser `json:"user"`
	Token string     `json:"token"`
}

// Backend is the view the console has of the catering services.
type Backend interface {
	SignIn(ctx context.Context, email, password string) (*SignInResult, error)
	// Fetch reads the data member of a JSON response, authenticated as the session token.
	Fetch(ctx context.Context, service, path, token string) (interface{}, error)
}

// HTTPBackend calls the services over HTTP forwarding the session bearer token.
type HTTPBackend struct {
	services map[string]string
	client   *http.Client
}

func NewHTTPBackend(services map[string]string, timeout time.Duration) *HTTPBackend {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	urls := make(map[string]string, len(services))
	for name, base := range services {
		urls[name] = strings.TrimRight(base, "/")
	}
	return &HTTPBackend{services: urls, client: &http.Client{Timeout: timeout}}
}

// BackendServices are the services the console reads dashboards from.
var BackendServices = []string{"authn", "storefront", "order", "kitchen", "delivery", "banquet", "checklist"}

// HTTPBackendFromConfig reads services.<name>.url for every backend service.
func HTTPBackendFromConfig(config *apt.Config) (*HTTPBackend, error) {
	services := make(map[string]string, len(BackendServices))
	for _, name := range BackendServices {
		base, _ := config.GetString("services." + name + ".url")
		if base == "" {
			return nil, fmt.Errorf("services.%s.url is required", name)
		}
		services[name] = base
	}
	timeout, err := time.ParseDuration(config.GetStringOrDef("services.timeout", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid services.timeout: %w", err)
	}
	return NewHTTPBackend(services, timeout), nil
}

func (b *HTTPBackend) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	body := map[string]string{"email": email, "password": password}
	var result SignInResult
	if err := b.do(ctx, http.MethodPost, "authn", "/authn/signin", "", body, &result); err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, errors.New("signin answered without a token")
	}
	return &result, nil
}

func (b *HTTPBackend) Fetch(ctx context.Context, service, path, token string) (interface{}, error) {
	var data interface{}
	if err := b.do(ctx, http.MethodGet, service, path, token, nil, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (b *HTTPBackend) do(ctx context.Context, method, service, path, token string, payload, dest interface{}) error {
	base, ok := b.services[service]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownService, service)
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := apt.RequestIDFrom(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s%s: %w", method, service, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Message: errorMessage(raw)}
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", service, err)
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		return fmt.Errorf("decode %s data: %w", service, err)
	}
	return nil
}

// errorMessage pulls a readable message out of an error body.
func errorMessage(raw []byte) string {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}
	switch v := body["error"].(type) {
	case string:
		return v
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
	}
	if msg, ok := body["message"].(string); ok {
		return msg
	}
	return strings.TrimSpace(string(raw))
}

package operations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newBackendServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/authn/signin", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		switch req["password"] {
		case "secret":
			_, _ = w.Write([]byte(`{"data":{"user":{"id":"u-1","email":"chef@example.com","first_name":"Ana","last_name":"Roux","role":"head_chef"},"token":"jwt-token"}}`))
		case "notoken":
			_, _ = w.Write([]byte(`{"data":{"user":{"id":"u-1"}}}`))
		case "inactive":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"Account is not active"}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Invalid credentials"}}`))
		}
	})
	mux.HandleFunc("/dashboard/head-chef", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer jwt-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Authentication required"}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"date":"` + r.URL.Query().Get("date") + `","completed":3}}`))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPBackendSignIn(t *testing.T) {
	srv := newBackendServer(t)
	b := NewHTTPBackend(map[string]string{"authn": srv.URL + "/"}, time.Second)

	tests := []struct {
		name       string
		password   string
		wantStatus int
		wantMsg    string
		wantErr    bool
	}{
		{name: "success", password: "secret"},
		{name: "invalidCredentials", password: "wrong", wantStatus: http.StatusUnauthorized, wantMsg: "Invalid credentials", wantErr: true},
		{name: "inactiveAccount", password: "inactive", wantStatus: http.StatusForbidden, wantMsg: "Account is not active", wantErr: true},
		{name: "missingToken", password: "notoken", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := b.SignIn(context.Background(), "chef@example.com", tt.password)
			if tt.wantErr {
				if err == nil {
					t.Fatal("SignIn() expected error")
				}
				if tt.wantStatus != 0 {
					var se *StatusError
					if !errors.As(err, &se) {
						t.Fatalf("error %v is not a StatusError", err)
					}
					if se.Code != tt.wantStatus || se.Message != tt.wantMsg {
						t.Errorf("StatusError = %d %q, want %d %q", se.Code, se.Message, tt.wantStatus, tt.wantMsg)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("SignIn() error = %v", err)
			}
			if res.Token != "jwt-token" {
				t.Errorf("Token = %q, want jwt-token", res.Token)
			}
			if res.User.Name() != "Ana Roux" || res.User.Role != "head_chef" {
				t.Errorf("User = %+v", res.User)
			}
		})
	}
}

func TestHTTPBackendFetch(t *testing.T) {
	srv := newBackendServer(t)
	b := NewHTTPBackend(map[string]string{"kitchen": srv.URL}, time.Second)
	ctx := context.Background()

	t.Run("forwardsToken", func(t *testing.T) {
		data, err := b.Fetch(ctx, "kitchen", "/dashboard/head-chef?date=2025-03-10", "jwt-token")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		m, ok := data.(map[string]interface{})
		if !ok {
			t.Fatalf("data = %T, want map", data)
		}
		if m["date"] != "2025-03-10" || m["completed"] != float64(3) {
			t.Errorf("data = %v", m)
		}
	})

	t.Run("unauthorized", func(t *testing.T) {
		_, err := b.Fetch(ctx, "kitchen", "/dashboard/head-chef", "")
		if !IsStatus(err, http.StatusUnauthorized) {
			t.Fatalf("Fetch() error = %v, want 401", err)
		}
		var se *StatusError
		errors.As(err, &se)
		if se.Message != "Authentication required" {
			t.Errorf("Message = %q", se.Message)
		}
	})

	t.Run("unknownService", func(t *testing.T) {
		_, err := b.Fetch(ctx, "media", "/", "")
		if !errors.Is(err, ErrUnknownService) {
			t.Errorf("Fetch() error = %v, want ErrUnknownService", err)
		}
	})

	t.Run("malformedBody", func(t *testing.T) {
		if _, err := b.Fetch(ctx, "kitchen", "/broken", ""); err == nil {
			t.Error("Fetch() expected decode error")
		}
	})
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "stringError", raw: `{"error":"boom"}`, want: "boom"},
		{name: "objectError", raw: `{"error":{"message":"nested"}}`, want: "nested"},
		{name: "messageField", raw: `{"message":"plain"}`, want: "plain"},
		{name: "notJSON", raw: " gateway timeout \n", want: "gateway timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorMessage([]byte(tt.raw)); got != tt.want {
				t.Errorf("errorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/catering/pkg/auth"
)

func TestHandlerCharge(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	orders := NewMockOrders(testOrder("o-1", "u-1", 2500))
	r := chi.NewRouter()
	NewHandler(NewService(&MockGateway{}, orders, "", nil), issuer, nil).RegisterRoutes(r)

	owner, _ := issuer.Issue(auth.Principal{UserID: "u-1", Role: "customer"})
	other, _ := issuer.Issue(auth.Principal{UserID: "u-2", Role: "customer"})

	tests := []struct {
		name  string
		token string
		body  string
		want  int
	}{
		{name: "anonymous", body: `{"order_id":"o-1","card_token":"t"}`, want: http.StatusUnauthorized},
		{name: "otherCustomer", token: other, body: `{"order_id":"o-1","card_token":"t"}`, want: http.StatusForbidden},
		{name: "missingOrder", token: owner, body: `{"card_token":"t"}`, want: http.StatusBadRequest},
		{name: "unknownOrder", token: owner, body: `{"order_id":"nope","card_token":"t"}`, want: http.StatusNotFound},
		{name: "paid", token: owner, body: `{"order_id":"o-1","card_token":"t"}`, want: http.StatusOK},
		{name: "paidTwice", token: owner, body: `{"order_id":"o-1","card_token":"t"}`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/payments/charge", strings.NewReader(tt.body))
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestHandlerWebhook(t *testing.T) {
	orders := NewMockOrders(testOrder("o-1", "u-1", 2500))
	gateway := &MockGateway{RetrieveEventFunc: func(ctx context.Context, id string) (*VerifiedEvent, error) {
		if id != "evnt_ok" {
			return nil, context.DeadlineExceeded
		}
		return &VerifiedEvent{ID: id, Key: EventChargeComplete, Charge: &ChargeResult{
			ID: "chrg_1", Status: ChargeSuccessful, Metadata: map[string]string{"order_id": "o-1"},
		}}, nil
	}}
	r := chi.NewRouter()
	NewHandler(NewService(gateway, orders, "", nil), auth.NewTokenIssuer("s", time.Hour), nil).RegisterRoutes(r)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "forged", body: `{"id":"evnt_forged","key":"charge.complete"}`, want: http.StatusUnauthorized},
		{name: "missingID", body: `{"key":"charge.complete"}`, want: http.StatusBadRequest},
		{name: "verified", body: `{"id":"evnt_ok","key":"charge.complete"}`, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(tt.body)))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}

	if len(orders.Paid) != 1 {
		t.Errorf("MarkPaid calls = %d, want 1", len(orders.Paid))
	}
}

package kitchen

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

func bearer(t *testing.T, issuer *auth.TokenIssuer, p auth.Principal) string {
	t.Helper()
	token, err := issuer.Issue(p)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return "Bearer " + token
}

func TestHandlerRoleGates(t *testing.T) {
	env := newTestEnv()
	if _, err := env.service.AddOrder(context.Background(), testSnapshot("o-1", "N1", "09:00", line("i-1", "Salad", "salads", 2))); err != nil {
		t.Fatalf("AddOrder() error = %v", err)
	}
	itemID := env.items.items[0].ID.String()

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	r := chi.NewRouter()
	NewHandler(env.service, issuer, nil).RegisterRoutes(r)

	customer := bearer(t, issuer, auth.Principal{UserID: "c-1", Role: "customer"})
	cook := bearer(t, issuer, auth.Principal{UserID: "k-1", Role: "cook", Department: "salads"})
	pastryCook := bearer(t, issuer, auth.Principal{UserID: "k-2", Role: "cook", Department: "pastry"})
	chef := bearer(t, issuer, auth.Principal{UserID: "d-1", Role: "department_chef", Department: "salads"})
	head := bearer(t, issuer, auth.Principal{UserID: "h-1", Role: "head_chef"})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		auth   string
		want   int
	}{
		{name: "anonymous", method: "GET", path: "/dispatch?date=2025-03-10", want: http.StatusUnauthorized},
		{name: "customer", method: "GET", path: "/dispatch?date=2025-03-10", auth: customer, want: http.StatusForbidden},
		{name: "boardCook", method: "GET", path: "/dispatch?date=2025-03-10", auth: cook, want: http.StatusOK},
		{name: "dispatchByCook", method: "POST", path: "/dispatch", body: `{"date":"2025-03-10"}`, auth: cook, want: http.StatusForbidden},
		{name: "dispatchBadDate", method: "POST", path: "/dispatch", body: `{"date":"tomorrow"}`, auth: head, want: http.StatusBadRequest},
		{name: "startOtherDepartment", method: "POST", path: "/items/" + itemID + "/start", auth: pastryCook, want: http.StatusForbidden},
		{name: "startOwnDepartment", method: "POST", path: "/items/" + itemID + "/start", auth: cook, want: http.StatusOK},
		{name: "issueWithoutDescription", method: "POST", path: "/items/" + itemID + "/issue", body: `{}`, auth: cook, want: http.StatusBadRequest},
		{name: "completeWithoutBody", method: "POST", path: "/items/" + itemID + "/complete", auth: cook, want: http.StatusOK},
		{name: "unknownItem", method: "POST", path: "/items/00000000-0000-0000-0000-000000000001/start", auth: cook, want: http.StatusNotFound},
		{name: "headDashboardByChef", method: "GET", path: "/dashboard/head-chef", auth: chef, want: http.StatusForbidden},
		{name: "headDashboard", method: "GET", path: "/dashboard/head-chef?date=2025-03-10", auth: head, want: http.StatusOK},
		{name: "departmentDashboardByCook", method: "GET", path: "/dashboard/department", auth: cook, want: http.StatusForbidden},
		{name: "cookDashboard", method: "GET", path: "/dashboard/cook", auth: cook, want: http.StatusOK},
		{name: "suppliesByCook", method: "GET", path: "/supply-orders", auth: cook, want: http.StatusForbidden},
		{name: "createSupply", method: "POST", path: "/supply-orders", body: `{"lines":[{"name":"Lettuce","quantity":5,"unit":"kg","unit_price":300}]}`, auth: chef, want: http.StatusCreated},
		{name: "notifications", method: "GET", path: "/notifications?unread=true", auth: cook, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d (%s)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"centsible/internal/auth"
	"centsible/internal/services"
	"centsible/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	tokens := auth.NewTokenManager("test-secret-test-secret", time.Hour)
	reporting := services.NewReportingService(repo)
	s := NewServer(":0", Deps{
		Auth:      services.NewAuthService(repo, tokens),
		Groups:    services.NewGroupService(repo),
		Expenses:  services.NewExpenseService(repo, nil, reporting),
		Payments:  services.NewPaymentService(repo, nil, reporting),
		Reporting: reporting,
		Tokens:    tokens,
	})
	t.Cleanup(func() { s.limiter.Stop() })
	return s
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// signup registers a user and returns their id and bearer token.
func signup(t *testing.T, s *Server, name string) (int64, string) {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/auth/signup", "", map[string]string{
		"name":     name,
		"email":    name + "@example.com",
		"password": "password123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup %s: status %d body %s", name, rec.Code, rec.Body.String())
	}
	var resp authResponse
	decodeBody(t, rec, &resp)
	return resp.User.ID, resp.Token
}

func createGroup(t *testing.T, s *Server, token string) groupResponse {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/groups", token, map[string]string{
		"name": "Trip",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create group: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp groupResponse
	decodeBody(t, rec, &resp)
	return resp
}

func joinGroup(t *testing.T, s *Server, token, code string) {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/groups/join", token, map[string]string{"code": code})
	if rec.Code != http.StatusOK {
		t.Fatalf("join group: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("health: status %d body %q", rec.Code, rec.Body.String())
	}
}

func TestSignupValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"missing email", map[string]string{"name": "a", "password": "password123"}, http.StatusUnprocessableEntity},
		{"bad email", map[string]string{"name": "a", "email": "nope", "password": "password123"}, http.StatusUnprocessableEntity},
		{"short password", map[string]string{"name": "a", "email": "a@example.com", "password": "short"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/auth/signup", "", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	// Malformed JSON is a 400, not a 422.
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec.Code)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	signup(t, s, "alice")

	rec := doJSON(t, s, http.MethodPost, "/auth/signup", "", map[string]string{
		"name": "Other Alice", "email": "alice@example.com", "password": "password123",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: status %d, want 409", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	signup(t, s, "alice")

	rec := doJSON(t, s, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: status %d, want 401", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/balance", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status %d, want 401", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/balance", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status %d, want 401", rec.Code)
	}
}

func TestGroupFlow(t *testing.T) {
	s := newTestServer(t)
	_, aliceTok := signup(t, s, "alice")
	_, bobTok := signup(t, s, "bob")

	group := createGroup(t, s, aliceTok)
	if group.JoinCode == "" {
		t.Fatal("group has no join code")
	}
	joinGroup(t, s, bobTok, group.JoinCode)

	// Bob sees the group in his list.
	rec := doJSON(t, s, http.MethodGet, "/api/groups", bobTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list groups: status %d", rec.Code)
	}
	var groups []groupResponse
	decodeBody(t, rec, &groups)
	if len(groups) != 1 || groups[0].ID != group.ID {
		t.Fatalf("bob's groups = %+v", groups)
	}

	// Unknown join code is a 404.
	rec = doJSON(t, s, http.MethodPost, "/api/groups/join", bobTok, map[string]string{"code": "XXXX"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("bad code: status %d, want 404", rec.Code)
	}

	// An outsider cannot read the group.
	_, carolTok := signup(t, s, "carol")
	rec = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/groups/%d", group.ID), carolTok, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outsider get group: status %d, want 403", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/groups/%d/members", group.ID), aliceTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("members: status %d", rec.Code)
	}
	var members map[string][]int64
	decodeBody(t, rec, &members)
	if len(members["member_ids"]) != 2 {
		t.Fatalf("members = %v", members)
	}
}

func TestExpenseAndBalanceFlow(t *testing.T) {
	s := newTestServer(t)
	_, aliceTok := signup(t, s, "alice")
	_, bobTok := signup(t, s, "bob")

	group := createGroup(t, s, aliceTok)
	joinGroup(t, s, bobTok, group.JoinCode)

	// Alice pays 10.00, split equally.
	rec := doJSON(t, s, http.MethodPost, "/api/expenses", aliceTok, map[string]any{
		"group_id":    group.ID,
		"description": "dinner",
		"amount":      "10.00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expense: status %d body %s", rec.Code, rec.Body.String())
	}
	var expense expenseResponse
	decodeBody(t, rec, &expense)
	if expense.Cents != 1000 || len(expense.Shares) != 2 {
		t.Fatalf("expense = %+v", expense)
	}

	// Bob owes Alice 5.00.
	rec = doJSON(t, s, http.MethodGet, "/api/balance", aliceTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("balance: status %d", rec.Code)
	}
	var balance balanceResponse
	decodeBody(t, rec, &balance)
	if balance.NetCents != 500 || balance.OwedToMeCents != 500 {
		t.Fatalf("alice balance = %+v", balance)
	}

	// Bob settles up in full.
	rec = doJSON(t, s, http.MethodPost, "/api/payments", bobTok, map[string]any{
		"group_id": group.ID,
		"payee_id": expense.PayerID,
		"amount":   "5.00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("payment: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/groups/%d/balance", group.ID), aliceTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("breakdown: status %d", rec.Code)
	}
	var breakdown breakdownResponse
	decodeBody(t, rec, &breakdown)
	if breakdown.NetCents != 0 || len(breakdown.OwedToMe) != 0 || len(breakdown.OwedByMe) != 0 {
		t.Fatalf("breakdown after settle = %+v", breakdown)
	}

	// Activity shows both entries to Bob.
	rec = doJSON(t, s, http.MethodGet, "/api/activity", bobTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("activity: status %d", rec.Code)
	}
	var feed []activityEntryResponse
	decodeBody(t, rec, &feed)
	if len(feed) != 2 {
		t.Fatalf("feed = %+v", feed)
	}
}

func TestExpenseRejections(t *testing.T) {
	s := newTestServer(t)
	_, aliceTok := signup(t, s, "alice")
	_, carolTok := signup(t, s, "carol")
	group := createGroup(t, s, aliceTok)

	// Outsider cannot record an expense in the group.
	rec := doJSON(t, s, http.MethodPost, "/api/expenses", carolTok, map[string]any{
		"group_id":    group.ID,
		"description": "sneaky",
		"amount":      "10.00",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outsider expense: status %d, want 403", rec.Code)
	}

	// Malformed amount.
	rec = doJSON(t, s, http.MethodPost, "/api/expenses", aliceTok, map[string]any{
		"group_id":    group.ID,
		"description": "dinner",
		"amount":      "abc",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad amount: status %d, want 422", rec.Code)
	}

	// Percentages that do not reach 100.
	rec = doJSON(t, s, http.MethodPost, "/api/expenses", aliceTok, map[string]any{
		"group_id":    group.ID,
		"description": "dinner",
		"amount":      "10.00",
		"method":      "percentage",
		"participants": []map[string]any{
			{"user_id": 1, "percent": "50"},
		},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad percentages: status %d, want 422 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestGetExpenseWithShares(t *testing.T) {
	s := newTestServer(t)
	_, aliceTok := signup(t, s, "alice")
	group := createGroup(t, s, aliceTok)

	rec := doJSON(t, s, http.MethodPost, "/api/expenses", aliceTok, map[string]any{
		"group_id":    group.ID,
		"description": "solo",
		"amount":      "7.50",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d", rec.Code)
	}
	var created expenseResponse
	decodeBody(t, rec, &created)

	rec = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/expenses/%d", created.ID), aliceTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
	var fetched expenseResponse
	decodeBody(t, rec, &fetched)
	if fetched.Cents != 750 || len(fetched.Shares) != 1 || fetched.Shares[0].Cents != 750 {
		t.Fatalf("fetched = %+v", fetched)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/expenses/99999", aliceTok, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing expense: status %d, want 404", rec.Code)
	}
}

func TestReceiptSuggest(t *testing.T) {
	s := newTestServer(t)
	_, tok := signup(t, s, "alice")

	text := "COFFEE SHOP\nLatte 4.50\nMuffin 3.25\nSub-total 7.75\nTotal $8.53\nThank you"
	rec := doJSON(t, s, http.MethodPost, "/api/receipts/suggest", tok, map[string]string{"text": text})
	if rec.Code != http.StatusOK {
		t.Fatalf("suggest: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp receiptSuggestResponse
	decodeBody(t, rec, &resp)
	if !resp.Found || resp.Cents != 853 {
		t.Fatalf("suggestion = %+v", resp)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/receipts/suggest", tok, map[string]string{"text": "no numbers here"})
	var none receiptSuggestResponse
	decodeBody(t, rec, &none)
	if none.Found {
		t.Fatalf("expected no suggestion, got %+v", none)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/healthz", "", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

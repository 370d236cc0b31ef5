package ynab

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"weekbudget/internal/core"
)

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			http.Error(w, `{"error":{"id":"401","name":"unauthorized"}}`, http.StatusUnauthorized)
			return
		}
		key := r.URL.Path
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}
		body, ok := routes[key]
		if !ok {
			http.Error(w, `{"error":{"id":"404","name":"not_found"}}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server, token string) *Client {
	t.Helper()
	c, err := New(token, WithBaseURL(srv.URL+"/v1/"), WithHTTPClient(srv.Client()), WithRequestsPerHour(0))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestClientReads(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/v1/budgets": `{"data":{"budgets":[{"id":"b1","name":"Home"}]}}`,
		"/v1/budgets/b1/categories": `{"data":{"category_groups":[{"id":"g1","name":"Essentials","hidden":false,"deleted":false,
			"categories":[{"id":"c1","name":"Groceries","category_group_name":"Essentials","budgeted":50000,"balance":31500,"goal_cadence":1,"goal_target":600000,"hidden":false}]}]}}`,
		"/v1/budgets/b1/months/2024-03-01/categories/c1": `{"data":{"category":{"id":"c1","name":"Groceries","budgeted":70000,"balance":1000,"goal_cadence":null,"goal_target":null,"hidden":false}}}`,
		"/v1/budgets/b1/transactions?since_date=2024-03-10": `{"data":{"transactions":[{"id":"t1","date":"2024-03-12","amount":-18500,"payee_name":"Market","category_name":null,
			"subtransactions":[{"amount":-18500,"payee_name":null,"category_name":"Groceries"}]}]}}`,
	})
	c := newTestClient(t, srv, "secret")
	ctx := context.Background()

	budgets, err := c.Budgets(ctx)
	if err != nil || len(budgets) != 1 || budgets[0].ID != "b1" {
		t.Fatalf("budgets: %+v %v", budgets, err)
	}

	groups, err := c.CategoryGroups(ctx, "b1")
	if err != nil || len(groups) != 1 {
		t.Fatalf("groups: %+v %v", groups, err)
	}
	cat := groups[0].Categories[0]
	if cat.Budgeted != 50000 || cat.GoalCadence == nil || *cat.GoalCadence != 1 {
		t.Fatalf("category: %+v", cat)
	}

	month, err := c.MonthCategory(ctx, "b1", core.NewDate(2024, 3, 10), "c1")
	if err != nil {
		t.Fatalf("month category: %v", err)
	}
	if month.Budgeted != 70000 || month.GoalTarget != nil || month.GroupName != nil {
		t.Fatalf("month category: %+v", month)
	}

	txs, err := c.TransactionsSince(ctx, "b1", core.NewDate(2024, 3, 10))
	if err != nil || len(txs) != 1 {
		t.Fatalf("transactions: %+v %v", txs, err)
	}
	tx := txs[0]
	if tx.CategoryName != nil || len(tx.Subtransactions) != 1 || *tx.Subtransactions[0].CategoryName != "Groceries" {
		t.Fatalf("transaction: %+v", tx)
	}
	if !tx.Date.Equal(core.NewDate(2024, 3, 12)) {
		t.Fatalf("date: %s", tx.Date)
	}
}

func TestClientAPIError(t *testing.T) {
	srv := newTestServer(t, map[string]string{})
	c := newTestClient(t, srv, "wrong")

	_, err := c.Budgets(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || !strings.Contains(apiErr.Body, "unauthorized") {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
	if !strings.Contains(err.Error(), "/v1/budgets") {
		t.Fatalf("error should name the URL: %v", err)
	}
}

func TestClientMalformedPayload(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/v1/budgets/b1/transactions?since_date=2024-03-10": `{"data":{"transactions":[{"id":"t1","date":"March 12","amount":1}]}}`,
	})
	c := newTestClient(t, srv, "secret")
	_, err := c.TransactionsSince(context.Background(), "b1", core.NewDate(2024, 3, 10))
	if !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestRateLimitHonoursContext(t *testing.T) {
	srv := newTestServer(t, map[string]string{"/v1/budgets": `{"data":{"budgets":[]}}`})
	c, err := New("secret", WithBaseURL(srv.URL+"/v1"), WithHTTPClient(srv.Client()), WithRequestsPerHour(1))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.Budgets(context.Background()); err != nil {
		t.Fatalf("first request should use the burst: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Budgets(ctx); err == nil {
		t.Fatalf("second request should be throttled")
	}
}

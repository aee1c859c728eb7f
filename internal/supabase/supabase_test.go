package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tabzpay/progress-sub002/types"
	"go.uber.org/zap"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func newFakeBackend(t *testing.T, status int, body string) (*fakeBackend, *Client) {
	t.Helper()
	fb := &fakeBackend{status: status, body: body}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		fb.mu.Lock()
		fb.requests = append(fb.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   data,
		})
		fb.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(fb.status)
		_, _ = io.WriteString(w, fb.body)
	}))
	t.Cleanup(srv.Close)

	client, err := New(Config{URL: srv.URL + "/", APIKey: "anon-key"})
	require.NoError(t, err)
	return fb, client
}

func (f *fakeBackend) only(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.requests, 1)
	return f.requests[0]
}

func TestNewRequiresURLAndKey(t *testing.T) {
	_, err := New(Config{APIKey: "k"})
	require.Error(t, err)
	_, err = New(Config{URL: "http://x"})
	require.Error(t, err)
}

func TestGroupsListOrderedByOwnerAndRecency(t *testing.T) {
	body := `[
		{"id": 2, "user_id": 7, "name": "Market women", "members": [], "created_at": "2025-02-02T00:00:00Z"},
		{"id": 1, "user_id": 7, "name": "Farmers", "members": [], "created_at": "2025-01-01T00:00:00Z"}
	]`
	fb, client := newFakeBackend(t, http.StatusOK, body)
	repo := NewGroupRepository(client, zap.NewNop())

	groups, err := repo.ListByUser(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, int64(2), groups[0].ID)

	req := fb.only(t)
	require.Equal(t, http.MethodGet, req.Method)
	require.Equal(t, "/rest/v1/groups", req.Path)
	require.Equal(t, "eq.7", req.Query.Get("user_id"))
	require.Equal(t, "created_at.desc", req.Query.Get("order"))
	require.Equal(t, "anon-key", req.Header.Get("apikey"))
	require.Equal(t, "Bearer anon-key", req.Header.Get("Authorization"))
}

func TestListDropsInvalidRows(t *testing.T) {
	body := `[
		{"id": 1, "user_id": 7, "name": "Good", "members": []},
		{"id": 2, "user_id": 7, "name": "", "members": []},
		{"id": "not-a-number"}
	]`
	_, client := newFakeBackend(t, http.StatusOK, body)
	repo := NewGroupRepository(client, zap.NewNop())

	groups, err := repo.ListByUser(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, "Good", groups[0].Name)
}

func TestTemplateDeleteFiltersByIDAndOwner(t *testing.T) {
	fb, client := newFakeBackend(t, http.StatusOK, `[{"id": 12}]`)
	repo := NewTemplateRepository(client, zap.NewNop())

	require.NoError(t, repo.Delete(context.Background(), 7, 12))

	req := fb.only(t)
	require.Equal(t, http.MethodDelete, req.Method)
	require.Equal(t, "/rest/v1/loan_templates", req.Path)
	require.Equal(t, "eq.12", req.Query.Get("id"))
	require.Equal(t, "eq.7", req.Query.Get("user_id"))
}

func TestTemplateDeleteNotOwnedReportsNotFound(t *testing.T) {
	_, client := newFakeBackend(t, http.StatusOK, `[]`)
	repo := NewTemplateRepository(client, zap.NewNop())

	err := repo.Delete(context.Background(), 7, 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTemplateCreateSendsOwnerAndName(t *testing.T) {
	fb, client := newFakeBackend(t, http.StatusCreated,
		`[{"id": 3, "user_id": 7, "name": "Standard", "amount": "500", "tax_rate": "0"}]`)
	repo := NewTemplateRepository(client, zap.NewNop())

	created, err := repo.Create(context.Background(), types.LoanTemplate{
		UserID: 7,
		Name:   "Standard",
		TemplateParams: types.TemplateParams{
			LoanType: types.LoanPersonal,
			Amount:   decimal.NewFromInt(500),
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), created.ID)

	req := fb.only(t)
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "return=representation", req.Header.Get("Prefer"))

	var sent map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &sent))
	require.Equal(t, float64(7), sent["user_id"])
	require.Equal(t, "Standard", sent["name"])
	require.Equal(t, "personal", sent["loan_type"])
	require.NotContains(t, sent, "id")
}

func TestUpstreamErrorsMatchSentinel(t *testing.T) {
	_, client := newFakeBackend(t, http.StatusInternalServerError, `{"message": "relation does not exist"}`)
	repo := NewLoanRepository(client, zap.NewNop())

	_, err := repo.ListByUser(context.Background(), 7, types.LoanFilter{})
	require.ErrorIs(t, err, ErrUpstream)
	require.Contains(t, err.Error(), "relation does not exist")
}

func TestLoanListFilters(t *testing.T) {
	fb, client := newFakeBackend(t, http.StatusOK, `[]`)
	repo := NewLoanRepository(client, zap.NewNop())

	loans, err := repo.ListByUser(context.Background(), 7, types.LoanFilter{Status: types.LoanOverdue, CustomerID: 4})
	require.NoError(t, err)
	require.Empty(t, loans)

	req := fb.only(t)
	require.Equal(t, "eq.OVERDUE", req.Query.Get("status"))
	require.Equal(t, "eq.4", req.Query.Get("customer_id"))
	require.Equal(t, "eq.7", req.Query.Get("user_id"))
}

func TestLoanUpdateStatusPatchesOnlyStatus(t *testing.T) {
	body := `[{"id": 5, "customer_id": 4, "user_id": 7, "type": "personal", "principal": "100",
		"interest_rate": "5", "currency": "USD", "status": "PAID", "due_date": "2025-06-01T00:00:00Z"}]`
	fb, client := newFakeBackend(t, http.StatusOK, body)
	repo := NewLoanRepository(client, zap.NewNop())

	loan, err := repo.UpdateStatus(context.Background(), 7, 5, types.LoanPaid)
	require.NoError(t, err)
	require.Equal(t, types.LoanPaid, loan.Status)

	req := fb.only(t)
	require.Equal(t, http.MethodPatch, req.Method)
	var sent map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &sent))
	require.Equal(t, "PAID", sent["status"])
	require.NotContains(t, sent, "user_id")
}

func TestCustomerGetNotFound(t *testing.T) {
	_, client := newFakeBackend(t, http.StatusOK, `[]`)
	repo := NewCustomerRepository(client, zap.NewNop())

	_, err := repo.GetByID(context.Background(), 7, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGroupGetScopesToOwner(t *testing.T) {
	fb, client := newFakeBackend(t, http.StatusOK, `[]`)
	repo := NewGroupRepository(client, zap.NewNop())

	_, err := repo.GetByID(context.Background(), 7, 900)
	require.ErrorIs(t, err, ErrNotFound)

	req := fb.only(t)
	require.Equal(t, "/rest/v1/groups", req.Path)
	require.Equal(t, "eq.900", req.Query.Get("id"))
	require.Equal(t, "eq.7", req.Query.Get("user_id"))
}

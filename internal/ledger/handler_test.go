package ledger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-ledger/internal/tenant"
)

func newTestServer(t *testing.T) (*httptest.Server, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	handler := NewHandler(nil, svc)

	tn, err := tenant.Parse("acme")
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(tenant.WithTenant(req.Context(), tn)))
		})
	})
	r.Route("/ledger", handler.MountRoutes)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, repo
}

func createViaHTTP(t *testing.T, srv *httptest.Server) JournalEntry {
	t.Helper()
	body := `{
		"company_id": 1,
		"date": "2026-03-15",
		"description": "Office supplies",
		"lines": [
			{"account_id": 6100, "debit": 250.40},
			{"account_id": 1000, "credit": 250.40}
		]
	}`
	resp, err := http.Post(srv.URL+"/ledger/entries", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var entry JournalEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entry))
	return entry
}

func TestHandlerCreateEntry(t *testing.T) {
	srv, repo := newTestServer(t)

	entry := createViaHTTP(t, srv)
	require.NotZero(t, entry.ID)
	require.Equal(t, EntryStatusPending, entry.Status)
	require.Equal(t, SourceManual, entry.SourceType)
	require.Len(t, repo.lines[entry.ID], 2)
}

func TestHandlerCreateEntryRejectsUnbalanced(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{
		"company_id": 1,
		"date": "2026-03-15",
		"lines": [
			{"account_id": 6100, "debit": 250.40},
			{"account_id": 1000, "credit": 100.00}
		]
	}`
	resp, err := http.Post(srv.URL+"/ledger/entries", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "application/problem+json")
}

func TestHandlerPostAndReverse(t *testing.T) {
	srv, repo := newTestServer(t)
	entry := createViaHTTP(t, srv)

	resp, err := http.Post(srv.URL+"/ledger/entries/"+itoa(entry.ID)+"/post", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/ledger/entries/"+itoa(entry.ID)+"/reverse", "application/json", bytes.NewBufferString(`{"actor_id": 7}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var reversal JournalEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reversal))
	require.Equal(t, SourceReversal, reversal.SourceType)
	require.Equal(t, EntryStatusReversed, repo.entries[entry.ID].Status)
}

func TestHandlerPostTwiceConflicts(t *testing.T) {
	srv, _ := newTestServer(t)
	entry := createViaHTTP(t, srv)

	for _, want := range []int{http.StatusOK, http.StatusConflict} {
		resp, err := http.Post(srv.URL+"/ledger/entries/"+itoa(entry.ID)+"/post", "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, want, resp.StatusCode)
	}
}

func TestHandlerGetBalance(t *testing.T) {
	srv, _ := newTestServer(t)
	entry := createViaHTTP(t, srv)

	resp, err := http.Post(srv.URL+"/ledger/entries/"+itoa(entry.ID)+"/post", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/ledger/balances/6100/2026-03")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var balance LedgerBalance
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&balance))
	require.InDelta(t, 250.40, balance.DebitTotal, 0.001)
}

func TestHandlerGetEntryNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ledger/entries/999")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

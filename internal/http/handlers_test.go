package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"tally/internal/core"
	"tally/internal/docstore"
	"tally/internal/status"
)

type fakeLedger struct {
	ready     bool
	records   []core.Record
	snapshots chan []core.Record

	added   []core.Draft
	deleted []string
	cleared int

	addErr    error
	deleteErr error
	clearErr  error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{ready: true, snapshots: make(chan []core.Record, 1)}
}

func (f *fakeLedger) Ready() bool                       { return f.ready }
func (f *fakeLedger) Snapshot() []core.Record           { return f.records }
func (f *fakeLedger) Snapshots() <-chan []core.Record   { return f.snapshots }
func (f *fakeLedger) Add(_ context.Context, d core.Draft) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, d)
	return nil
}
func (f *fakeLedger) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}
func (f *fakeLedger) ClearAll(context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared++
	return nil
}

type fakeStatus struct {
	msg     *status.Message
	changes chan status.Message
}

func newFakeStatus() *fakeStatus {
	return &fakeStatus{changes: make(chan status.Message, 1)}
}

func (f *fakeStatus) Current() (status.Message, bool) {
	if f.msg == nil {
		return status.Message{}, false
	}
	return *f.msg, true
}
func (f *fakeStatus) Changes() <-chan status.Message { return f.changes }

func newTestServer(t *testing.T, ledger *fakeLedger, st *fakeStatus) *Server {
	t.Helper()
	s := NewServer(":0", ledger, st)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func doRequest(s *Server, method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleIndex(t *testing.T) {
	ledger := newFakeLedger()
	ledger.records = []core.Record{
		{ID: "a", Name: "Coffee", Amount: core.Money{Cents: 450}, Category: core.Food, Date: "7/14/2026"},
	}
	s := newTestServer(t, ledger, newFakeStatus())

	rec := doRequest(s, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Coffee", "4.50", "Food", "Entertainment", `name="amount"`} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
}

func TestHandleIndex_NotFoundForOtherPaths(t *testing.T) {
	s := newTestServer(t, newFakeLedger(), newFakeStatus())

	rec := doRequest(s, http.MethodGet, "/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreateExpense(t *testing.T) {
	ledger := newFakeLedger()
	s := newTestServer(t, ledger, newFakeStatus())

	form := url.Values{"name": {"Coffee"}, "amount": {"4.50"}, "category": {"Food"}}
	rec := doRequest(s, http.MethodPost, "/expenses", form)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("HX-Trigger") != "records:changed" {
		t.Errorf("expected HX-Trigger header, got %q", rec.Header().Get("HX-Trigger"))
	}
	if len(ledger.added) != 1 {
		t.Fatalf("expected 1 draft added, got %d", len(ledger.added))
	}
	got := ledger.added[0]
	if got.Name != "Coffee" || got.Amount.Cents != 450 || got.Category != core.Food {
		t.Errorf("unexpected draft: %+v", got)
	}
}

func TestCreateExpense_InvalidAmountBecomesZero(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addErr = core.ErrInvalidAmount
	s := newTestServer(t, ledger, newFakeStatus())

	form := url.Values{"name": {"Coffee"}, "amount": {"abc"}, "category": {"Food"}}
	rec := doRequest(s, http.MethodPost, "/expenses", form)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if len(ledger.added) != 0 {
		t.Errorf("draft should not reach the ledger on validation failure")
	}
}

func TestDeleteExpense(t *testing.T) {
	ledger := newFakeLedger()
	s := newTestServer(t, ledger, newFakeStatus())

	rec := doRequest(s, http.MethodDelete, "/expenses/rec-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(ledger.deleted) != 1 || ledger.deleted[0] != "rec-1" {
		t.Errorf("expected delete of rec-1, got %v", ledger.deleted)
	}
}

func TestDeleteExpense_Missing(t *testing.T) {
	ledger := newFakeLedger()
	ledger.deleteErr = docstore.ErrNotFound
	s := newTestServer(t, ledger, newFakeStatus())

	rec := doRequest(s, http.MethodDelete, "/expenses/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestClearExpenses(t *testing.T) {
	ledger := newFakeLedger()
	s := newTestServer(t, ledger, newFakeStatus())

	rec := doRequest(s, http.MethodDelete, "/expenses", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ledger.cleared != 1 {
		t.Errorf("expected 1 clear call, got %d", ledger.cleared)
	}
}

func TestExpenseListPartial(t *testing.T) {
	ledger := newFakeLedger()
	ledger.records = []core.Record{
		{ID: "a", Name: "Rent", Amount: core.Money{Cents: 120000}, Category: core.Housing, Date: "7/1/2026"},
		{ID: "b", Name: "Coffee", Amount: core.Money{Cents: 450}, Category: core.Food, Date: "7/14/2026"},
	}
	s := newTestServer(t, ledger, newFakeStatus())

	rec := doRequest(s, http.MethodGet, "/ui/expenses", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Total: 1204.50") {
		t.Errorf("expected running total in body, got:\n%s", body)
	}
	if !strings.Contains(body, "Rent") || !strings.Contains(body, "Coffee") {
		t.Errorf("expected both expenses in body")
	}
}

func TestExpenseListPartial_LoadingBeforeFirstSnapshot(t *testing.T) {
	ledger := newFakeLedger()
	ledger.ready = false
	s := newTestServer(t, ledger, newFakeStatus())

	rec := doRequest(s, http.MethodGet, "/ui/expenses", nil)
	if !strings.Contains(rec.Body.String(), "Loading") {
		t.Errorf("expected loading placeholder, got:\n%s", rec.Body.String())
	}
}

func TestStatusPartial(t *testing.T) {
	st := newFakeStatus()
	st.msg = &status.Message{Text: "Added Coffee (4.50).", Kind: status.Info}
	s := newTestServer(t, newFakeLedger(), st)

	rec := doRequest(s, http.MethodGet, "/ui/status", nil)
	body := rec.Body.String()
	if !strings.Contains(body, "Added Coffee (4.50).") {
		t.Errorf("expected status text in body, got:\n%s", body)
	}
	if strings.Contains(body, "status-error") {
		t.Errorf("info message should not carry the error class")
	}
}

func TestReadyz(t *testing.T) {
	ledger := newFakeLedger()
	ledger.ready = false
	s := newTestServer(t, ledger, newFakeStatus())

	if rec := doRequest(s, http.MethodGet, "/readyz", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before first snapshot, got %d", rec.Code)
	}
	ledger.ready = true
	if rec := doRequest(s, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 once ready, got %d", rec.Code)
	}
}

func TestSanitizeInput(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Coffee  ", "Coffee"},
		{"Cof\x00fee", "Coffee"},
		{"multi\nline", "multi\nline"},
	}
	for _, c := range cases {
		if got := sanitizeInput(c.in); got != c.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

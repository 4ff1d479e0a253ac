package http

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"tally/internal/core"
	"tally/internal/docstore"
	applog "tally/internal/log"
	"tally/internal/status"
)

// listView is the data fed to the expense list partial.
type listView struct {
	Loading bool
	Items   []itemView
	Total   string
	Count   int
}

type itemView struct {
	ID       string
	Name     string
	Amount   string
	Category string
	Date     string
	Pending  bool
}

func (s *Server) listData() listView {
	if !s.ledger.Ready() {
		return listView{Loading: true}
	}
	recs := s.ledger.Snapshot()
	view := listView{
		Items: make([]itemView, 0, len(recs)),
		Total: core.Total(recs).Format(),
		Count: len(recs),
	}
	for _, rec := range recs {
		view.Items = append(view.Items, itemView{
			ID:       rec.ID,
			Name:     rec.Name,
			Amount:   rec.Amount.Format(),
			Category: string(rec.Category),
			Date:     rec.Date,
			Pending:  rec.CreatedAt.IsZero(),
		})
	}
	return view
}

type statusView struct {
	Text    string
	IsError bool
}

func (s *Server) statusData() statusView {
	msg, ok := s.statusSrc.Current()
	if !ok {
		return statusView{}
	}
	return statusView{Text: msg.Text, IsError: msg.Kind == status.Error}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		Categories []core.Category
		Draft      core.Draft
		List       listView
		Status     statusView
	}{
		Categories: core.Categories(),
		Draft:      core.DefaultDraft(),
		List:       s.listData(),
		Status:     s.statusData(),
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleExpenses adds an expense (POST) or clears them all (DELETE).
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createExpense(w, r)
	case http.MethodDelete:
		s.clearExpenses(w, r)
	default:
		w.Header().Set("Allow", "POST, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="status status-error">Malformed request</div>`))
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	amountStr := strings.TrimSpace(r.Form.Get("amount"))
	category := core.Category(sanitizeInput(r.Form.Get("category")))

	// An unparseable amount becomes zero and fails draft validation with the
	// same message a zero amount would.
	amount, err := core.ParseAmount(amountStr)
	if err != nil {
		amount = core.Money{}
	}

	draft := core.Draft{Name: name, Amount: amount, Category: category}
	if err := s.ledger.Add(r.Context(), draft); err != nil {
		s.renderStatusFragment(w, r, http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("HX-Trigger", "records:changed")
	s.renderStatusFragment(w, r, http.StatusOK)
}

func (s *Server) clearExpenses(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.ClearAll(r.Context()); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Clear all error", "error", err)
		s.renderStatusFragment(w, r, http.StatusInternalServerError)
		return
	}
	w.Header().Set("HX-Trigger", "records:changed")
	s.renderStatusFragment(w, r, http.StatusOK)
}

// handleExpenseByID deletes a single expense addressed as /expenses/{id}.
func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.Header().Set("Allow", "DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/expenses/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	if err := s.ledger.Delete(r.Context(), id); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, docstore.ErrNotFound) {
			code = http.StatusNotFound
		}
		s.renderStatusFragment(w, r, code)
		return
	}
	w.Header().Set("HX-Trigger", "records:changed")
	s.renderStatusFragment(w, r, http.StatusOK)
}

// handleExpenseList renders the live list partial with the running total.
func (s *Server) handleExpenseList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="expense-list"><div class="placeholder">Loading...</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "expense_list.html", s.listData()); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution error", "error", err, "template", "expense_list.html")
		_, _ = w.Write([]byte(`<section id="expense-list"><div class="placeholder">Could not render the list</div></section>`))
	}
}

// handleStatus renders the status box partial.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.renderStatusFragment(w, r, http.StatusOK)
}

func (s *Server) renderStatusFragment(w http.ResponseWriter, r *http.Request, code int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	data := s.statusData()
	if s.templates == nil {
		_, _ = w.Write([]byte(`<div id="status-box" class="status">` + template.HTMLEscapeString(data.Text) + `</div>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "status.html", data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution error", "error", err, "template", "status.html")
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

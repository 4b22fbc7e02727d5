package handlers

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/czaroPieczaro/sloik/internal/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

// LedgerService is the mutation surface the handlers invoke.
type LedgerService interface {
	Credit(ctx context.Context, jarID int64, amount domain.Amount, title string) (*domain.Operation, error)
	Charge(ctx context.Context, jarID int64, amount domain.Amount, title string) (*domain.Operation, error)
	TransferBetween(ctx context.Context, chargedID, creditedID int64, amount domain.Amount, title string) error
}

// JarService is the jar lifecycle surface the handlers invoke.
type JarService interface {
	CreateJar(ctx context.Context, currency string) (*domain.Jar, error)
	DeleteJar(ctx context.Context, id int64) error
}

// HistoryService is the read surface the handlers invoke.
type HistoryService interface {
	ListJars(ctx context.Context) ([]*domain.Jar, error)
	GetJar(ctx context.Context, id int64) (*domain.Jar, error)
	ListOperations(ctx context.Context) ([]*domain.Operation, error)
	ListJarOperations(ctx context.Context, jarID int64) ([]*domain.Operation, error)
	JarsWithHistory(ctx context.Context) ([]*domain.Jar, error)
	JarsWithBalance(ctx context.Context) ([]*domain.Jar, error)
	TransferTargets(ctx context.Context, sourceID int64) ([]*domain.Jar, error)
}

// Handler serves the server-rendered jar pages.
type Handler struct {
	ledger  LedgerService
	jars    JarService
	history HistoryService
	tmpl    *template.Template
	log     zerolog.Logger
}

// NewHandler creates a Handler with parsed templates.
func NewHandler(ledger LedgerService, jars JarService, history HistoryService, log zerolog.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Handler{
		ledger:  ledger,
		jars:    jars,
		history: history,
		tmpl:    tmpl,
		log:     log,
	}, nil
}

// Index renders the jar list.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	jars, err := h.history.ListJars(r.Context())
	if err != nil {
		h.renderFailure(w, r, err, "There was an issue loading jars.")
		return
	}
	h.render(w, "index.html", struct{ Jars []*domain.Jar }{jars})
}

// CreateJar creates a new jar from the posted currency.
func (h *Handler) CreateJar(w http.ResponseWriter, r *http.Request) {
	currency := r.FormValue("currency")
	if _, err := h.jars.CreateJar(r.Context(), currency); err != nil {
		h.renderFailure(w, r, err, "There was an issue adding new jar.")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// DeleteJar deletes a jar and, via cascade, all its operations.
func (h *Handler) DeleteJar(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jarID(w, r)
	if !ok {
		return
	}
	if err := h.jars.DeleteJar(r.Context(), id); err != nil {
		h.renderFailure(w, r, err, "There was an issue deleting jar.")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// JarDetail renders one jar together with its operation history.
func (h *Handler) JarDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jarID(w, r)
	if !ok {
		return
	}
	jar, err := h.history.GetJar(r.Context(), id)
	if err != nil {
		h.renderFailure(w, r, err, "There was an issue loading the jar.")
		return
	}
	ops, err := h.history.ListJarOperations(r.Context(), id)
	if err != nil {
		h.renderFailure(w, r, err, "There was an issue loading the jar.")
		return
	}
	h.render(w, "jar.html", struct {
		Jar        *domain.Jar
		Operations []*domain.Operation
	}{jar, ops})
}

// PutForm renders the deposit form.
func (h *Handler) PutForm(w http.ResponseWriter, r *http.Request) {
	h.jarForm(w, r, "put.html")
}

// Put deposits money into a jar.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jarID(w, r)
	if !ok {
		return
	}
	amount, title, ok := h.mutationInput(w, r)
	if !ok {
		return
	}
	if _, err := h.ledger.Credit(r.Context(), id, amount, title); err != nil {
		h.renderFailure(w, r, err, "There was an issue putting money into the jar.")
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/jar/%d", id), http.StatusSeeOther)
}

// WithdrawForm renders the withdrawal form.
func (h *Handler) WithdrawForm(w http.ResponseWriter, r *http.Request) {
	h.jarForm(w, r, "withdraw.html")
}

// Withdraw takes money out of a jar. Overdrafts are rejected as an illegal
// operation before anything is written.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jarID(w, r)
	if !ok {
		return
	}
	amount, title, ok := h.mutationInput(w, r)
	if !ok {
		return
	}
	if _, err := h.ledger.Charge(r.Context(), id, amount, title); err != nil {
		h.renderFailure(w, r, err, "There was an issue withdrawing money from the jar.")
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/jar/%d", id), http.StatusSeeOther)
}

// TransferSelect renders the transfer source selection page: only jars with a
// positive balance can be transferred from.
func (h *Handler) TransferSelect(w http.ResponseWriter, r *http.Request) {
	jars, err := h.history.JarsWithBalance(r.Context())
	if err != nil {
		h.renderFailure(w, r, err, "There was an issue loading jars.")
		return
	}
	if len(jars) == 0 {
		fmt.Fprint(w, "No money in any jar!")
		return
	}
	h.render(w, "jar2jar_select.html", struct{ Jars []*domain.Jar }{jars})
}

// TransferSelectSubmit redirects to the transfer form for the chosen source jar.
func (h *Handler) TransferSelectSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid jar identifier.", http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/jar2jar/%d", id), http.StatusSeeOther)
}

// TransferForm renders the jar-to-jar transfer form with advisory targets:
// jars of the same currency, excluding the source. Eligibility is re-checked
// server-side on submit.
func (h *Handler) TransferForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jarID(w, r)
	if !ok {
		return
	}
	charged, err := h.history.GetJar(r.Context(), id)
	if err != nil {
		h.renderFailure(w, r, err, "There was an issue loading the jar.")
		return
	}
	targets, err := h.history.TransferTargets(r.Context(), id)
	if err != nil {
		h.renderFailure(w, r, err, "There was an issue loading the jar.")
		return
	}
	h.render(w, "jar2jar.html", struct {
		Charged *domain.Jar
		Targets []*domain.Jar
	}{charged, targets})
}

// Transfer moves money between two jars of the same currency.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	chargedID, ok := h.jarID(w, r)
	if !ok {
		return
	}
	creditedID, err := strconv.ParseInt(r.FormValue("jar_credited_id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid jar identifier.", http.StatusBadRequest)
		return
	}
	amount, title, ok := h.mutationInput(w, r)
	if !ok {
		return
	}
	if err := h.ledger.TransferBetween(r.Context(), chargedID, creditedID, amount, title); err != nil {
		h.renderFailure(w, r, err, "There was an issue transferring money between jars.")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Operations renders the operation history, optionally filtered to one jar
// chosen via the posted form.
func (h *Handler) Operations(w http.ResponseWriter, r *http.Request) {
	var selected int64
	if r.Method == http.MethodPost {
		id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid jar identifier.", http.StatusBadRequest)
			return
		}
		selected = id
	}
	h.operationsPage(w, r, selected)
}

// JarOperations renders the operation history of a single jar.
func (h *Handler) JarOperations(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jarID(w, r)
	if !ok {
		return
	}
	h.operationsPage(w, r, id)
}

func (h *Handler) operationsPage(w http.ResponseWriter, r *http.Request, selected int64) {
	var ops []*domain.Operation
	var err error
	if selected != 0 {
		ops, err = h.history.ListJarOperations(r.Context(), selected)
	} else {
		ops, err = h.history.ListOperations(r.Context())
	}
	if err != nil {
		h.renderFailure(w, r, err, "There was an issue loading operations.")
		return
	}

	jars, err := h.history.JarsWithHistory(r.Context())
	if err != nil {
		h.renderFailure(w, r, err, "There was an issue loading operations.")
		return
	}

	h.render(w, "operations.html", struct {
		Operations []*domain.Operation
		Jars       []*domain.Jar
		Selected   int64
	}{ops, jars, selected})
}

// jarForm renders a single-jar form page (deposit/withdraw).
func (h *Handler) jarForm(w http.ResponseWriter, r *http.Request, name string) {
	id, ok := h.jarID(w, r)
	if !ok {
		return
	}
	jar, err := h.history.GetJar(r.Context(), id)
	if err != nil {
		h.renderFailure(w, r, err, "There was an issue loading the jar.")
		return
	}
	h.render(w, name, struct{ Jar *domain.Jar }{jar})
}

// jarID parses the {id} route parameter; on failure it writes a 400 and
// returns ok=false.
func (h *Handler) jarID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid jar identifier.", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// mutationInput parses the amount and title form fields. The amount arrives
// as a decimal string and is converted to minor units exactly, never through
// floating point.
func (h *Handler) mutationInput(w http.ResponseWriter, r *http.Request) (domain.Amount, string, bool) {
	amount, err := domain.ParseAmount(r.FormValue("amount"))
	if err != nil {
		http.Error(w, "Invalid amount.", http.StatusBadRequest)
		return 0, "", false
	}
	title := r.FormValue("title")
	if title == "" {
		http.Error(w, "Title is required.", http.StatusBadRequest)
		return 0, "", false
	}
	return amount, title, true
}

// renderFailure maps a typed domain error to its user-facing rendering:
// not-found to 404, business-rule rejections to "Illegal operation.",
// malformed input to 400 and anything else (storage) to a generic message.
func (h *Handler) renderFailure(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrJarNotFound):
		http.NotFound(w, r)
	case domain.IsIllegalOperation(err):
		http.Error(w, "Illegal operation.", http.StatusUnprocessableEntity)
	case domain.IsValidationFailure(err):
		http.Error(w, "Invalid input.", http.StatusBadRequest)
	default:
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.Error().Err(err).Str("template", name).Msg("template render failed")
		http.Error(w, "There was an issue rendering the page.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tabzpay/progress-sub002/internal/services"
	"github.com/tabzpay/progress-sub002/internal/supabase"
	"github.com/tabzpay/progress-sub002/types"
	"go.uber.org/zap"
)

// LoanHandler provides HTTP handlers for loans.
type LoanHandler struct {
	loans  *services.LoanService
	logger *zap.Logger
}

func NewLoanHandler(loans *services.LoanService, logger *zap.Logger) *LoanHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoanHandler{loans: loans, logger: logger.Named("loans")}
}

// LoanRouter registers loan routes on the given router.
func LoanRouter(r chi.Router, handler *LoanHandler) {
	r.Get("/", handler.List)
	r.Post("/", handler.Create)
	r.Route("/{loanID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Patch("/status", handler.UpdateStatus)
		r.Delete("/", handler.Delete)
	})
}

func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	filter := types.LoanFilter{
		Status: types.LoanStatus(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("customer_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			writeError(w, http.StatusBadRequest, "invalid customer_id")
			return
		}
		filter.CustomerID = id
	}

	items, err := h.loans.List(r.Context(), userID, filter)
	if err != nil {
		writeServiceError(w, h.logger, err, supabase.TableLoans, "loan not found")
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[types.Loan]{Items: items})
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := parseID(r, "loanID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	loan, err := h.loans.Get(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, h.logger, err, supabase.TableLoans, "loan not found")
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req types.Loan
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	created, err := h.loans.Create(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, h.logger, err, supabase.TableLoans, "loan not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateStatus writes any status of the closed set; there are no transition rules.
func (h *LoanHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := parseID(r, "loanID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req LoanStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	updated, err := h.loans.UpdateStatus(r.Context(), userID, id, req.Status)
	if err != nil {
		writeServiceError(w, h.logger, err, supabase.TableLoans, "loan not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *LoanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := parseID(r, "loanID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.loans.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, h.logger, err, supabase.TableLoans, "loan not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type LoanStatusRequest struct {
	Status types.LoanStatus `json:"status"`
}

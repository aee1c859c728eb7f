package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tabzpay/progress-sub002/internal/services"
	"github.com/tabzpay/progress-sub002/internal/supabase"
	"github.com/tabzpay/progress-sub002/types"
	"go.uber.org/zap"
)

// CustomerHandler provides HTTP handlers for customers.
type CustomerHandler struct {
	customers *services.CustomerService
	logger    *zap.Logger
}

func NewCustomerHandler(customers *services.CustomerService, logger *zap.Logger) *CustomerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerHandler{customers: customers, logger: logger.Named("customers")}
}

// CustomerRouter registers customer routes on the given router. The caller
// mounts it behind RequireAuth.
func CustomerRouter(r chi.Router, handler *CustomerHandler) {
	r.Get("/", handler.List)
	r.Post("/", handler.Create)
	r.Route("/{customerID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Put("/", handler.Update)
		r.Delete("/", handler.Delete)
	})
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	items, err := h.customers.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err, supabase.TableCustomers, "customer not found")
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[types.Customer]{Items: items})
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := parseID(r, "customerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	customer, err := h.customers.Get(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, h.logger, err, supabase.TableCustomers, "customer not found")
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req types.Customer
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	created, err := h.customers.Create(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, h.logger, err, supabase.TableCustomers, "customer not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := parseID(r, "customerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req types.Customer
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.ID = id
	updated, err := h.customers.Update(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, h.logger, err, supabase.TableCustomers, "customer not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := parseID(r, "customerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.customers.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, h.logger, err, supabase.TableCustomers, "customer not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListResponse wraps collection results.
type ListResponse[T any] struct {
	Items []T `json:"items"`
}

func requireUser(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	return userID, true
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tabzpay/progress-sub002/internal/services"
	"github.com/tabzpay/progress-sub002/internal/supabase"
	"github.com/tabzpay/progress-sub002/types"
	"go.uber.org/zap"
)

// TemplateHandler provides HTTP handlers for loan templates. Templates
// cannot be updated in place.
type TemplateHandler struct {
	templates *services.TemplateService
	logger    *zap.Logger
}

func NewTemplateHandler(templates *services.TemplateService, logger *zap.Logger) *TemplateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateHandler{templates: templates, logger: logger.Named("templates")}
}

func TemplateRouter(r chi.Router, handler *TemplateHandler) {
	r.Get("/", handler.List)
	r.Post("/", handler.Create)
	r.Delete("/{templateID}", handler.Delete)
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	items, err := h.templates.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err, supabase.TableTemplates, "template not found")
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[types.LoanTemplate]{Items: items})
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req TemplateCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	created, err := h.templates.Create(r.Context(), userID, req.Name, req.TemplateParams)
	if err != nil {
		writeServiceError(w, h.logger, err, supabase.TableTemplates, "template not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := parseID(r, "templateID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.templates.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, h.logger, err, supabase.TableTemplates, "template not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type TemplateCreateRequest struct {
	Name string `json:"name"`
	types.TemplateParams
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tabzpay/progress-sub002/internal/services"
	"github.com/tabzpay/progress-sub002/internal/supabase"
	"github.com/tabzpay/progress-sub002/types"
	"go.uber.org/zap"
)

// GroupHandler provides HTTP handlers for loan groups.
type GroupHandler struct {
	groups *services.GroupService
	logger *zap.Logger
}

func NewGroupHandler(groups *services.GroupService, logger *zap.Logger) *GroupHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupHandler{groups: groups, logger: logger.Named("groups")}
}

func GroupRouter(r chi.Router, handler *GroupHandler) {
	r.Get("/", handler.List)
	r.Post("/", handler.Create)
	r.Delete("/{groupID}", handler.Delete)
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	items, err := h.groups.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err, supabase.TableGroups, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[types.Group]{Items: items})
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req types.Group
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	created, err := h.groups.Create(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, h.logger, err, supabase.TableGroups, "group not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := parseID(r, "groupID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.groups.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, h.logger, err, supabase.TableGroups, "group not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

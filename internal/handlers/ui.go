package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tabzpay/progress-sub002/internal/navbar"
	"github.com/tabzpay/progress-sub002/internal/services"
	"github.com/tabzpay/progress-sub002/internal/uistate"
	"go.uber.org/zap"
)

// UIHandler serves per-user UI preferences and the navigation model.
type UIHandler struct {
	backend     uistate.Backend
	userService *services.UserService
	logger      *zap.Logger
}

func NewUIHandler(backend uistate.Backend, userService *services.UserService, logger *zap.Logger) *UIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UIHandler{backend: backend, userService: userService, logger: logger.Named("ui")}
}

func UIRouter(r chi.Router, handler *UIHandler) {
	r.Get("/preferences", handler.GetPreferences)
	r.Put("/preferences", handler.UpdatePreferences)
	r.Get("/navigation", handler.Navigation)
}

func (h *UIHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.open(r, userID).Preferences())
}

// UpdatePreferences applies only the fields present in the body.
func (h *UIHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req PreferencesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	store := h.open(r, userID)
	prefs := store.Preferences()
	if req.Theme != nil {
		prefs.Theme = uistate.Theme(strings.ToLower(strings.TrimSpace(*req.Theme)))
	}
	if req.SidebarOpen != nil {
		prefs.SidebarOpen = *req.SidebarOpen
	}

	if err := store.SetPreferences(r.Context(), prefs); err != nil {
		if errors.Is(err, uistate.ErrInvalidTheme) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("save preferences", zap.Int("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, store.Preferences())
}

// Navigation builds the navbar for ?path=. The unread count is owned by the
// client and passed as ?unread=.
func (h *UIHandler) Navigation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	unread := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("unread")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid unread")
			return
		}
		unread = n
	}

	in := navbar.Input{
		Path:        r.URL.Query().Get("path"),
		Preferences: h.open(r, userID).Preferences(),
		Unread:      unread,
	}
	if user, err := h.userService.GetByID(r.Context(), userID); err == nil {
		public := user.Public()
		in.User = &public
	} else {
		h.logger.Warn("navigation without user", zap.Int("user_id", userID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, navbar.Build(in))
}

func (h *UIHandler) open(r *http.Request, userID int) *uistate.Store {
	return uistate.Open(r.Context(), uistate.Scoped(h.backend, userID), uistate.DefaultKey, h.logger)
}

type PreferencesRequest struct {
	Theme       *string `json:"theme"`
	SidebarOpen *bool   `json:"sidebarOpen"`
}

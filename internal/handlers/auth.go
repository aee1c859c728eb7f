package handlers

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/tabzpay/progress-sub002/internal/auth"
	"github.com/tabzpay/progress-sub002/internal/metrics"
	"github.com/tabzpay/progress-sub002/internal/services"
	"github.com/tabzpay/progress-sub002/internal/store"
	"github.com/tabzpay/progress-sub002/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 10

const (
	msgMissingFields      = "missing required fields"
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid email or password"
	msgInternal           = "Internal server error"
)

// AuthHandler provides JWT authentication endpoints.
type AuthHandler struct {
	userService *services.UserService
	tokens      *auth.TokenManager
	logger      *zap.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, tokens *auth.TokenManager, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
		logger:      logger.Named("auth"),
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.With(handler.RequireAuth).Get("/me", handler.Me)
}

// RequireAuth enforces JWT authentication and injects the user id into context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return RequireAuth(h.tokens)(next)
}

// RequireAuth constructs auth middleware for other routers.
func RequireAuth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := auth.BearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			claims, err := tokens.Parse(tokenString)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), claims.UserID)))
		})
	}
}

// Register creates a new user account and returns a JWT.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = services.NormalizeEmail(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.Email == "" || req.Password == "" {
		metrics.RecordAuth("register", "invalid")
		writeError(w, http.StatusBadRequest, msgMissingFields)
		return
	}

	if _, err := h.userService.GetByEmail(r.Context(), req.Email); err == nil {
		metrics.RecordAuth("register", "conflict")
		writeError(w, http.StatusBadRequest, msgUserExists)
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.internalError(w, "register", "check existing user", err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordCost)
	if err != nil {
		h.internalError(w, "register", "hash password", err)
		return
	}

	user, err := h.userService.Create(r.Context(), types.User{
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			metrics.RecordAuth("register", "conflict")
			writeError(w, http.StatusBadRequest, msgUserExists)
			return
		}
		h.internalError(w, "register", "create user", err)
		return
	}

	token, _, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.internalError(w, "register", "issue token", err)
		return
	}

	metrics.RecordAuth("register", "success")
	writeJSON(w, http.StatusCreated, AuthResponse{Token: token, User: user.Public()})
}

// Login verifies credentials and returns a JWT. Unknown emails and wrong
// passwords get the same response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = services.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		metrics.RecordAuth("login", "invalid")
		writeError(w, http.StatusBadRequest, msgMissingFields)
		return
	}

	user, err := h.userService.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Spend the same bcrypt time as a real comparison.
			_ = bcrypt.CompareHashAndPassword(h.placeholderHash(), []byte(req.Password))
			metrics.RecordAuth("login", "invalid_credentials")
			writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}
		h.internalError(w, "login", "load user", err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			h.internalError(w, "login", "compare password", err)
			return
		}
		metrics.RecordAuth("login", "invalid_credentials")
		writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}

	token, _, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.internalError(w, "login", "issue token", err)
		return
	}

	metrics.RecordAuth("login", "success")
	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user.Public()})
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		h.internalError(w, "me", "load user", err)
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

func (h *AuthHandler) internalError(w http.ResponseWriter, action, step string, err error) {
	metrics.RecordAuth(action, "error")
	h.logger.Error("auth request failed", zap.String("action", action), zap.String("step", step), zap.Error(err))
	writeError(w, http.StatusInternalServerError, msgInternal)
}

func (h *AuthHandler) placeholderHash() []byte {
	h.dummyOnce.Do(func() {
		h.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("placeholder-password"), passwordCost)
	})
	return h.dummyHash
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	PhoneNumber string `json:"phoneNumber"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string           `json:"token"`
	User  types.PublicUser `json:"user"`
}

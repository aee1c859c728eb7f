// Package routeguard gates protected views on the session state: a spinner
// while the session is still being resolved, the view when signed in, and a
// redirect to sign-in otherwise.
package routeguard

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tabzpay/progress-sub002/internal/auth"
	"github.com/tabzpay/progress-sub002/internal/session"
	"go.uber.org/zap"
)

// SignInPath is where unauthenticated visitors are sent.
const SignInPath = "/sign-in"

type Outcome int

const (
	ShowSpinner Outcome = iota
	RenderProtected
	RedirectToSignIn
)

func (o Outcome) String() string {
	switch o {
	case ShowSpinner:
		return "show_spinner"
	case RenderProtected:
		return "render_protected"
	case RedirectToSignIn:
		return "redirect_to_sign_in"
	default:
		return "unknown"
	}
}

type Decision struct {
	Outcome    Outcome
	RedirectTo string
}

// AuthState is the view of the session the guard decides on.
type AuthState interface {
	Loading() bool
	Current() (session.Session, bool)
}

// Decide picks what to render for requestedURI. The requested location is
// preserved in the sign-in redirect.
func Decide(state AuthState, requestedURI string) Decision {
	if state.Loading() {
		return Decision{Outcome: ShowSpinner}
	}
	if _, ok := state.Current(); ok {
		return Decision{Outcome: RenderProtected}
	}
	return Decision{Outcome: RedirectToSignIn, RedirectTo: SignInURL(requestedURI)}
}

func SignInURL(requestedURI string) string {
	if requestedURI == "" {
		return SignInPath
	}
	return SignInPath + "?redirect=" + url.QueryEscape(requestedURI)
}

// TokenParser verifies a session token.
type TokenParser interface {
	Parse(token string) (auth.Claims, error)
}

// Guard applies Decide to server routes. The session comes from the bearer
// header or the session cookie and is verified before use.
type Guard struct {
	tokens TokenParser
	logger *zap.Logger
}

func New(tokens TokenParser, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{tokens: tokens, logger: logger.Named("routeguard")}
}

type contextKey struct{}

// SessionFromContext returns the session the guard admitted.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(contextKey{}).(session.Session)
	return s, ok
}

func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provider := g.resolve(r)
		decision := Decide(provider, r.URL.RequestURI())

		switch decision.Outcome {
		case RenderProtected:
			s, _ := provider.Current()
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, s)))
		case RedirectToSignIn:
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, decision.RedirectTo, http.StatusFound)
		default:
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}

func (g *Guard) resolve(r *http.Request) *session.Provider {
	provider := session.NewProvider()
	token, ok := auth.RequestToken(r)
	if !ok {
		provider.Resolve(nil)
		return provider
	}
	claims, err := g.tokens.Parse(token)
	if err != nil {
		g.logger.Debug("rejecting session token", zap.String("path", r.URL.Path), zap.Error(err))
		provider.Resolve(nil)
		return provider
	}
	provider.Resolve(&session.Session{
		Token:     token,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
	})
	return provider
}

// Package session is the client-side auth context: whether the stored
// session has been resolved yet and, if so, who is signed in.
package session

import (
	"sync"
	"time"

	"github.com/tabzpay/progress-sub002/internal/auth"
)

// Session is a signed-in user as seen by the client.
type Session struct {
	Token     string
	UserID    int
	ExpiresAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// FromToken builds a session from a stored token using its unverified claims.
func FromToken(token string) (Session, error) {
	claims, err := auth.ParseUnverified(token)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, UserID: claims.UserID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Provider starts out loading and settles once Restore or Resolve is called.
type Provider struct {
	mu      sync.RWMutex
	loading bool
	current *Session
	now     func() time.Time
}

func NewProvider() *Provider {
	return &Provider{loading: true, now: time.Now}
}

// Loading reports whether the provider is still initializing.
func (p *Provider) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}

// Resolve finishes initialization with s, or with no session when s is nil.
func (p *Provider) Resolve(s *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s != nil {
		copied := *s
		p.current = &copied
	} else {
		p.current = nil
	}
	p.loading = false
}

// Restore resolves from a stored token. An empty, malformed or expired token
// resolves to no session.
func (p *Provider) Restore(token string) {
	if token == "" {
		p.Resolve(nil)
		return
	}
	s, err := FromToken(token)
	if err != nil || s.Expired(p.now()) {
		p.Resolve(nil)
		return
	}
	p.Resolve(&s)
}

// Current returns the session if one is present and not expired.
func (p *Provider) Current() (Session, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.loading || p.current == nil || p.current.Expired(p.now()) {
		return Session{}, false
	}
	return *p.current, true
}

// SignOut drops the session. The token itself stays valid until it expires.
func (p *Provider) SignOut() {
	p.Resolve(nil)
}

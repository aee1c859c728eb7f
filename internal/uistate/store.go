// Package uistate is the application-wide UI state: durable preferences
// (theme, sidebar) restored once at startup and saved on every change, plus
// ephemeral flags that always start from their defaults.
package uistate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tabzpay/progress-sub002/internal/notify"
	"go.uber.org/zap"
)

// DefaultKey is the fixed key the durable blob is stored under.
const DefaultKey = "loan-tracker-ui"

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

var ErrInvalidTheme = errors.New("theme must be light, dark or system")

// Preferences is the durable subset. It is the only part ever serialized.
type Preferences struct {
	Theme       Theme `json:"theme"`
	SidebarOpen bool  `json:"sidebarOpen"`
}

func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeLight, SidebarOpen: true}
}

// State is a point-in-time copy of the store.
type State struct {
	Preferences
	CommandPaletteOpen bool `json:"commandPaletteOpen"`
	HelpModalOpen      bool `json:"helpModalOpen"`
	UnreadCount        int  `json:"unreadCount"`
}

// Store holds UI state for one client. It is safe for concurrent use.
type Store struct {
	backend Backend
	key     string
	logger  *zap.Logger

	mu    sync.Mutex
	state State

	// saveMu orders saves so the last write to the backend is the latest state.
	saveMu sync.Mutex
}

// Open builds a store and restores the durable preferences from backend.
// A missing or corrupt blob leaves the defaults in place.
func Open(ctx context.Context, backend Backend, key string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if key == "" {
		key = DefaultKey
	}
	s := &Store{
		backend: backend,
		key:     key,
		logger:  logger.Named("uistate"),
		state:   State{Preferences: DefaultPreferences()},
	}
	s.restore(ctx)
	return s
}

func (s *Store) restore(ctx context.Context) {
	if s.backend == nil {
		return
	}
	data, err := s.backend.Load(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotExist) {
			s.logger.Warn("load preferences failed", zap.String("key", s.key), zap.Error(err))
		}
		return
	}

	prefs := DefaultPreferences()
	if err := json.Unmarshal(data, &prefs); err != nil {
		s.logger.Warn("ignoring corrupt preferences", zap.String("key", s.key), zap.Error(err))
		return
	}
	if !prefs.Theme.Valid() {
		s.logger.Warn("ignoring unknown theme", zap.String("key", s.key), zap.String("theme", string(prefs.Theme)))
		prefs.Theme = ThemeLight
	}
	s.state.Preferences = prefs
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) Preferences() Preferences {
	return s.Snapshot().Preferences
}

func (s *Store) SetTheme(ctx context.Context, theme Theme) error {
	if !theme.Valid() {
		return ErrInvalidTheme
	}
	return s.updatePreferences(ctx, func(p *Preferences) { p.Theme = theme })
}

// ToggleTheme flips between light and dark; system becomes dark.
func (s *Store) ToggleTheme(ctx context.Context) error {
	return s.updatePreferences(ctx, func(p *Preferences) {
		if p.Theme == ThemeDark {
			p.Theme = ThemeLight
		} else {
			p.Theme = ThemeDark
		}
	})
}

func (s *Store) SetSidebarOpen(ctx context.Context, open bool) error {
	return s.updatePreferences(ctx, func(p *Preferences) { p.SidebarOpen = open })
}

func (s *Store) ToggleSidebar(ctx context.Context) error {
	return s.updatePreferences(ctx, func(p *Preferences) { p.SidebarOpen = !p.SidebarOpen })
}

// SetPreferences replaces both durable fields at once.
func (s *Store) SetPreferences(ctx context.Context, prefs Preferences) error {
	if !prefs.Theme.Valid() {
		return ErrInvalidTheme
	}
	return s.updatePreferences(ctx, func(p *Preferences) { *p = prefs })
}

// updatePreferences applies fn and persists the result. The in-memory
// change stands even when saving fails.
func (s *Store) updatePreferences(ctx context.Context, fn func(*Preferences)) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	fn(&s.state.Preferences)
	prefs := s.state.Preferences
	s.mu.Unlock()

	if s.backend == nil {
		return nil
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := s.backend.Save(ctx, s.key, data); err != nil {
		s.logger.Warn("save preferences failed", zap.String("key", s.key), zap.Error(err))
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

func (s *Store) SetCommandPaletteOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CommandPaletteOpen = open
}

func (s *Store) SetHelpModalOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.HelpModalOpen = open
}

func (s *Store) SetUnreadCount(n int) {
	if n < 0 {
		n = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UnreadCount = n
}

func (s *Store) IncrementUnread() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UnreadCount++
}

func (s *Store) ClearUnread() {
	s.SetUnreadCount(0)
}

// Notify counts every toast as unread.
func (s *Store) Notify(_ context.Context, _ notify.Notification) {
	s.IncrementUnread()
}

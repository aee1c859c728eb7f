package hooks

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/tabzpay/progress-sub002/internal/notify"
	"github.com/tabzpay/progress-sub002/internal/supabase"
	"github.com/tabzpay/progress-sub002/types"
	"go.uber.org/zap"
)

// TemplateStore reads and mutates a user's loan templates.
type TemplateStore interface {
	ListByUser(ctx context.Context, userID int) ([]types.LoanTemplate, error)
	Create(ctx context.Context, tmpl types.LoanTemplate) (types.LoanTemplate, error)
	Delete(ctx context.Context, userID int, id int64) error
}

type TemplatesParams struct {
	UserID  int
	Enabled bool
}

type TemplatesSnapshot struct {
	Templates []types.LoanTemplate
	Loading   bool
	Err       error
}

// TemplatesHook loads a user's loan templates and saves or deletes them.
// Mutations report their outcome as a bool plus a notification.
type TemplatesHook struct {
	store    TemplateStore
	notifier notify.Notifier
	logger   *zap.Logger

	mu        sync.Mutex
	params    TemplatesParams
	hasParams bool

	feed feed[types.LoanTemplate]
}

func NewTemplatesHook(store TemplateStore, notifier notify.Notifier, logger *zap.Logger) *TemplatesHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplatesHook{store: store, notifier: notifier, logger: logger.Named("templates_hook")}
}

// SetParams claims the next load while holding the params lock, so the rows
// that land always belong to the latest owner.
func (h *TemplatesHook) SetParams(ctx context.Context, p TemplatesParams) {
	h.mu.Lock()
	prev, had := h.params, h.hasParams
	h.params, h.hasParams = p, true
	if had && prev == p {
		h.mu.Unlock()
		return
	}
	if !p.Enabled || p.UserID < 1 {
		h.feed.reset()
		h.mu.Unlock()
		return
	}
	run := h.feed.start(ctx)
	h.mu.Unlock()

	h.load(ctx, p.UserID, run)
}

func (h *TemplatesHook) Reload(ctx context.Context) {
	h.mu.Lock()
	userID, ok := h.params.UserID, h.hasParams && h.params.UserID > 0
	if !ok {
		h.mu.Unlock()
		return
	}
	run := h.feed.start(ctx)
	h.mu.Unlock()

	h.load(ctx, userID, run)
}

func (h *TemplatesHook) load(ctx context.Context, userID int, run func(func(context.Context) ([]types.LoanTemplate, error)) error) {
	err := run(func(ctx context.Context) ([]types.LoanTemplate, error) {
		rows, err := h.store.ListByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		slices.SortStableFunc(rows, func(a, b types.LoanTemplate) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
		return rows, nil
	})
	if err != nil {
		h.logger.Error("load templates failed", zap.Int("user_id", userID), zap.Error(err))
		notify.Error(ctx, h.notifier, "Failed to load templates")
	}
}

// Save inserts a template named name. A blank name fails without contacting
// the backend.
func (h *TemplatesHook) Save(ctx context.Context, name string, params types.TemplateParams) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		notify.Error(ctx, h.notifier, "Template name is required")
		return false
	}
	userID, ok := h.owner()
	if !ok {
		notify.Error(ctx, h.notifier, "You must be signed in to save templates")
		return false
	}

	created, err := h.store.Create(ctx, types.LoanTemplate{
		UserID:         userID,
		Name:           name,
		TemplateParams: params,
	})
	if err != nil {
		h.logger.Error("save template failed", zap.Int("user_id", userID), zap.String("name", name), zap.Error(err))
		notify.Error(ctx, h.notifier, "Failed to save template")
		return false
	}

	h.feed.prepend(created)
	notify.Success(ctx, h.notifier, "Template saved successfully")
	return true
}

// Delete removes a template owned by the current user. Templates owned by
// someone else are left untouched and reported as a failure.
func (h *TemplatesHook) Delete(ctx context.Context, id int64) bool {
	userID, ok := h.owner()
	if !ok {
		notify.Error(ctx, h.notifier, "You must be signed in to delete templates")
		return false
	}

	if err := h.store.Delete(ctx, userID, id); err != nil {
		if !errors.Is(err, supabase.ErrNotFound) {
			h.logger.Error("delete template failed", zap.Int("user_id", userID), zap.Int64("id", id), zap.Error(err))
		}
		notify.Error(ctx, h.notifier, "Failed to delete template")
		return false
	}

	h.feed.remove(func(t types.LoanTemplate) bool { return t.ID == id })
	notify.Success(ctx, h.notifier, "Template deleted")
	return true
}

func (h *TemplatesHook) Snapshot() TemplatesSnapshot {
	rows, loading, err := h.feed.snapshot()
	return TemplatesSnapshot{Templates: rows, Loading: loading, Err: err}
}

func (h *TemplatesHook) Close() {
	h.feed.close()
}

func (h *TemplatesHook) owner() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.params.UserID, h.hasParams && h.params.UserID > 0
}

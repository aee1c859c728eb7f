package hooks

import (
	"context"
	"slices"
	"sync"

	"github.com/tabzpay/progress-sub002/internal/notify"
	"github.com/tabzpay/progress-sub002/types"
	"go.uber.org/zap"
)

// GroupLister reads a user's groups.
type GroupLister interface {
	ListByUser(ctx context.Context, userID int) ([]types.Group, error)
}

// GroupsParams drive the groups hook. SelectedID picks the derived
// selection; zero selects nothing.
type GroupsParams struct {
	UserID     int
	Enabled    bool
	SelectedID int64
}

type GroupsSnapshot struct {
	Groups   []types.Group
	Loading  bool
	Err      error
	Selected *types.Group
}

// GroupsHook loads a user's groups newest first and tracks a selection.
type GroupsHook struct {
	repo     GroupLister
	notifier notify.Notifier
	logger   *zap.Logger

	mu        sync.Mutex
	params    GroupsParams
	hasParams bool

	feed feed[types.Group]
}

func NewGroupsHook(repo GroupLister, notifier notify.Notifier, logger *zap.Logger) *GroupsHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupsHook{repo: repo, notifier: notifier, logger: logger.Named("groups_hook")}
}

// SetParams applies new params and loads when the owner or the enabled flag
// changed. Changing only SelectedID re-derives the selection without a read.
// The call blocks until the load finishes or is superseded.
func (h *GroupsHook) SetParams(ctx context.Context, p GroupsParams) {
	h.mu.Lock()
	prev, had := h.params, h.hasParams
	h.params, h.hasParams = p, true
	if had && prev.UserID == p.UserID && prev.Enabled == p.Enabled {
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

// Reload re-runs the read with the current params.
func (h *GroupsHook) Reload(ctx context.Context) {
	h.mu.Lock()
	p := h.params
	if !p.Enabled || p.UserID < 1 {
		h.mu.Unlock()
		return
	}
	run := h.feed.start(ctx)
	h.mu.Unlock()

	h.load(ctx, p.UserID, run)
}

func (h *GroupsHook) load(ctx context.Context, userID int, run func(func(context.Context) ([]types.Group, error)) error) {
	err := run(func(ctx context.Context) ([]types.Group, error) {
		rows, err := h.repo.ListByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		slices.SortStableFunc(rows, func(a, b types.Group) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
		return rows, nil
	})
	if err != nil {
		h.logger.Error("load groups failed", zap.Int("user_id", userID), zap.Error(err))
		notify.Error(ctx, h.notifier, "Failed to load groups")
	}
}

// Selected returns the group matching SelectedID, or nil.
func (h *GroupsHook) Selected() *types.Group {
	return h.Snapshot().Selected
}

func (h *GroupsHook) Snapshot() GroupsSnapshot {
	groups, loading, err := h.feed.snapshot()
	h.mu.Lock()
	selectedID := h.params.SelectedID
	h.mu.Unlock()

	snap := GroupsSnapshot{Groups: groups, Loading: loading, Err: err}
	if selectedID != 0 {
		for i := range groups {
			if groups[i].ID == selectedID {
				selected := groups[i]
				snap.Selected = &selected
				break
			}
		}
	}
	return snap
}

// Close cancels any pending load. The hook ignores later calls.
func (h *GroupsHook) Close() {
	h.feed.close()
}

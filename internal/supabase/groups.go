package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/tabzpay/progress-sub002/types"
	"go.uber.org/zap"
)

// GroupRepository reads and writes the groups table.
type GroupRepository struct {
	client *Client
	logger *zap.Logger
}

func NewGroupRepository(client *Client, logger *zap.Logger) *GroupRepository {
	return &GroupRepository{client: client, logger: nopIfNil(logger)}
}

// ListByUser returns the user's groups, newest first.
func (r *GroupRepository) ListByUser(ctx context.Context, userID int) ([]types.Group, error) {
	resp, err := checked(r.client.From(TableGroups).
		Select("*").
		Eq("user_id", userID).
		Order("created_at", false).
		Execute(ctx))
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return decodeRows[types.Group](r.logger, TableGroups, resp)
}

// GetByID returns the group only when userID owns it.
func (r *GroupRepository) GetByID(ctx context.Context, userID int, id int64) (types.Group, error) {
	resp, err := checked(r.client.From(TableGroups).
		Select("*").
		Eq("id", id).
		Eq("user_id", userID).
		Limit(1).
		Execute(ctx))
	if err != nil {
		return types.Group{}, fmt.Errorf("get group: %w", err)
	}
	return decodeOne[types.Group](r.logger, TableGroups, resp)
}

func (r *GroupRepository) Create(ctx context.Context, group types.Group) (types.Group, error) {
	group.ID = 0
	group.CreatedAt = time.Now().UTC()
	if group.Members == nil {
		group.Members = []types.GroupMember{}
	}

	resp, err := checked(r.client.From(TableGroups).ExecuteInsert(ctx, group))
	if err != nil {
		return types.Group{}, fmt.Errorf("create group: %w", err)
	}
	created, err := decodeOne[types.Group](r.logger, TableGroups, resp)
	if err != nil {
		return types.Group{}, fmt.Errorf("create group: %w", err)
	}
	return created, nil
}

// Delete removes a group owned by userID.
func (r *GroupRepository) Delete(ctx context.Context, userID int, id int64) error {
	resp, err := checked(r.client.From(TableGroups).
		Eq("id", id).
		Eq("user_id", userID).
		ExecuteDelete(ctx))
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return expectAffected(resp)
}

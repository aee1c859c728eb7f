package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tabzpay/progress-sub002/internal/supabase"
	"github.com/tabzpay/progress-sub002/types"
)

// GroupRepository defines persistence operations for groups.
type GroupRepository interface {
	ListByUser(ctx context.Context, userID int) ([]types.Group, error)
	GetByID(ctx context.Context, userID int, id int64) (types.Group, error)
	Create(ctx context.Context, group types.Group) (types.Group, error)
	Delete(ctx context.Context, userID int, id int64) error
}

// GroupService encapsulates group use-cases.
type GroupService struct {
	repo      GroupRepository
	customers CustomerRepository
}

func NewGroupService(repo GroupRepository, customers CustomerRepository) *GroupService {
	return &GroupService{repo: repo, customers: customers}
}

func (s *GroupService) List(ctx context.Context, userID int) ([]types.Group, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Create stores a group whose members are all customers of the caller.
func (s *GroupService) Create(ctx context.Context, userID int, group types.Group) (types.Group, error) {
	group.UserID = userID
	group.Name = strings.TrimSpace(group.Name)
	if err := group.Validate(); err != nil {
		return types.Group{}, invalid(err)
	}

	for _, member := range group.Members {
		if _, err := s.customers.GetByID(ctx, userID, member.CustomerID); err != nil {
			if errors.Is(err, supabase.ErrNotFound) {
				return types.Group{}, invalid(fmt.Errorf("customer %d not found", member.CustomerID))
			}
			return types.Group{}, err
		}
	}

	return s.repo.Create(ctx, group)
}

func (s *GroupService) Delete(ctx context.Context, userID int, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}

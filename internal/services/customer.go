package services

import (
	"context"

	"github.com/tabzpay/progress-sub002/types"
)

// CustomerRepository defines persistence operations for customers.
type CustomerRepository interface {
	ListByUser(ctx context.Context, userID int) ([]types.Customer, error)
	GetByID(ctx context.Context, userID int, id int64) (types.Customer, error)
	Create(ctx context.Context, customer types.Customer) (types.Customer, error)
	Update(ctx context.Context, customer types.Customer) (types.Customer, error)
	Delete(ctx context.Context, userID int, id int64) error
}

// CustomerService encapsulates customer use-cases. The owner always comes
// from the caller, never from the payload.
type CustomerService struct {
	repo CustomerRepository
}

func NewCustomerService(repo CustomerRepository) *CustomerService {
	return &CustomerService{repo: repo}
}

func (s *CustomerService) List(ctx context.Context, userID int) ([]types.Customer, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *CustomerService) Get(ctx context.Context, userID int, id int64) (types.Customer, error) {
	return s.repo.GetByID(ctx, userID, id)
}

func (s *CustomerService) Create(ctx context.Context, userID int, customer types.Customer) (types.Customer, error) {
	customer.UserID = userID
	if customer.Type == "" {
		customer.Type = types.CustomerIndividual
	}
	if err := customer.Validate(); err != nil {
		return types.Customer{}, invalid(err)
	}
	return s.repo.Create(ctx, customer)
}

func (s *CustomerService) Update(ctx context.Context, userID int, customer types.Customer) (types.Customer, error) {
	customer.UserID = userID
	if err := customer.Validate(); err != nil {
		return types.Customer{}, invalid(err)
	}
	return s.repo.Update(ctx, customer)
}

func (s *CustomerService) Delete(ctx context.Context, userID int, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tabzpay/progress-sub002/internal/supabase"
	"github.com/tabzpay/progress-sub002/types"
)

// LoanRepository defines persistence operations for loans.
type LoanRepository interface {
	ListByUser(ctx context.Context, userID int, filter types.LoanFilter) ([]types.Loan, error)
	GetByID(ctx context.Context, userID int, id int64) (types.Loan, error)
	Create(ctx context.Context, loan types.Loan) (types.Loan, error)
	UpdateStatus(ctx context.Context, userID int, id int64, status types.LoanStatus) (types.Loan, error)
	Delete(ctx context.Context, userID int, id int64) error
}

// LoanService encapsulates loan use-cases.
type LoanService struct {
	repo      LoanRepository
	customers CustomerRepository
	groups    GroupRepository
}

func NewLoanService(repo LoanRepository, customers CustomerRepository, groups GroupRepository) *LoanService {
	return &LoanService{repo: repo, customers: customers, groups: groups}
}

func (s *LoanService) List(ctx context.Context, userID int, filter types.LoanFilter) ([]types.Loan, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid(fmt.Errorf("unknown loan status %q", filter.Status))
	}
	return s.repo.ListByUser(ctx, userID, filter)
}

func (s *LoanService) Get(ctx context.Context, userID int, id int64) (types.Loan, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// Create issues a loan to one of the caller's customers. Group loans must
// reference one of the caller's groups. New loans start PENDING unless a
// status is given.
func (s *LoanService) Create(ctx context.Context, userID int, loan types.Loan) (types.Loan, error) {
	loan.UserID = userID
	loan.Currency = strings.ToUpper(strings.TrimSpace(loan.Currency))
	if loan.Status == "" {
		loan.Status = types.LoanPending
	}
	if err := loan.Validate(); err != nil {
		return types.Loan{}, invalid(err)
	}

	if _, err := s.customers.GetByID(ctx, userID, loan.CustomerID); err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return types.Loan{}, invalid(errors.New("customer not found"))
		}
		return types.Loan{}, err
	}

	if loan.GroupID != nil {
		if _, err := s.groups.GetByID(ctx, userID, *loan.GroupID); err != nil {
			if errors.Is(err, supabase.ErrNotFound) {
				return types.Loan{}, invalid(errors.New("group not found"))
			}
			return types.Loan{}, err
		}
	}

	return s.repo.Create(ctx, loan)
}

// UpdateStatus accepts any member of the closed status set.
func (s *LoanService) UpdateStatus(ctx context.Context, userID int, id int64, status types.LoanStatus) (types.Loan, error) {
	status = types.LoanStatus(strings.ToUpper(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return types.Loan{}, invalid(fmt.Errorf("unknown loan status %q", status))
	}
	return s.repo.UpdateStatus(ctx, userID, id, status)
}

func (s *LoanService) Delete(ctx context.Context, userID int, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}

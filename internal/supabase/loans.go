package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/tabzpay/progress-sub002/types"
	"go.uber.org/zap"
)

// LoanRepository reads and writes the loans table.
type LoanRepository struct {
	client *Client
	logger *zap.Logger
}

func NewLoanRepository(client *Client, logger *zap.Logger) *LoanRepository {
	return &LoanRepository{client: client, logger: nopIfNil(logger)}
}

func (r *LoanRepository) ListByUser(ctx context.Context, userID int, f types.LoanFilter) ([]types.Loan, error) {
	q := r.client.From(TableLoans).
		Select("*").
		Eq("user_id", userID)
	if f.Status != "" {
		q = q.Eq("status", f.Status)
	}
	if f.CustomerID > 0 {
		q = q.Eq("customer_id", f.CustomerID)
	}

	resp, err := checked(q.Order("created_at", false).Execute(ctx))
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return decodeRows[types.Loan](r.logger, TableLoans, resp)
}

func (r *LoanRepository) GetByID(ctx context.Context, userID int, id int64) (types.Loan, error) {
	resp, err := checked(r.client.From(TableLoans).
		Select("*").
		Eq("id", id).
		Eq("user_id", userID).
		Limit(1).
		Execute(ctx))
	if err != nil {
		return types.Loan{}, fmt.Errorf("get loan: %w", err)
	}
	return decodeOne[types.Loan](r.logger, TableLoans, resp)
}

func (r *LoanRepository) Create(ctx context.Context, loan types.Loan) (types.Loan, error) {
	now := time.Now().UTC()
	loan.ID = 0
	loan.CreatedAt = now
	loan.UpdatedAt = now

	resp, err := checked(r.client.From(TableLoans).ExecuteInsert(ctx, loan))
	if err != nil {
		return types.Loan{}, fmt.Errorf("create loan: %w", err)
	}
	created, err := decodeOne[types.Loan](r.logger, TableLoans, resp)
	if err != nil {
		return types.Loan{}, fmt.Errorf("create loan: %w", err)
	}
	return created, nil
}

// UpdateStatus writes any member of the closed status set; there are no
// transition rules.
func (r *LoanRepository) UpdateStatus(ctx context.Context, userID int, id int64, status types.LoanStatus) (types.Loan, error) {
	resp, err := checked(r.client.From(TableLoans).
		Eq("id", id).
		Eq("user_id", userID).
		ExecuteUpdate(ctx, map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}))
	if err != nil {
		return types.Loan{}, fmt.Errorf("update loan status: %w", err)
	}
	return decodeOne[types.Loan](r.logger, TableLoans, resp)
}

func (r *LoanRepository) Delete(ctx context.Context, userID int, id int64) error {
	resp, err := checked(r.client.From(TableLoans).
		Eq("id", id).
		Eq("user_id", userID).
		ExecuteDelete(ctx))
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	return expectAffected(resp)
}

package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/tabzpay/progress-sub002/types"
	"go.uber.org/zap"
)

// CustomerRepository reads and writes the customers table. Every query is
// scoped to the owning user.
type CustomerRepository struct {
	client *Client
	logger *zap.Logger
}

func NewCustomerRepository(client *Client, logger *zap.Logger) *CustomerRepository {
	return &CustomerRepository{client: client, logger: nopIfNil(logger)}
}

func (r *CustomerRepository) ListByUser(ctx context.Context, userID int) ([]types.Customer, error) {
	resp, err := checked(r.client.From(TableCustomers).
		Select("*").
		Eq("user_id", userID).
		Order("created_at", false).
		Execute(ctx))
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return decodeRows[types.Customer](r.logger, TableCustomers, resp)
}

func (r *CustomerRepository) GetByID(ctx context.Context, userID int, id int64) (types.Customer, error) {
	resp, err := checked(r.client.From(TableCustomers).
		Select("*").
		Eq("id", id).
		Eq("user_id", userID).
		Limit(1).
		Execute(ctx))
	if err != nil {
		return types.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return decodeOne[types.Customer](r.logger, TableCustomers, resp)
}

func (r *CustomerRepository) Create(ctx context.Context, customer types.Customer) (types.Customer, error) {
	now := time.Now().UTC()
	customer.ID = 0
	customer.CreatedAt = now
	customer.UpdatedAt = now

	resp, err := checked(r.client.From(TableCustomers).ExecuteInsert(ctx, customer))
	if err != nil {
		return types.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	created, err := decodeOne[types.Customer](r.logger, TableCustomers, resp)
	if err != nil {
		return types.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return created, nil
}

func (r *CustomerRepository) Update(ctx context.Context, customer types.Customer) (types.Customer, error) {
	customer.UpdatedAt = time.Now().UTC()

	resp, err := checked(r.client.From(TableCustomers).
		Eq("id", customer.ID).
		Eq("user_id", customer.UserID).
		ExecuteUpdate(ctx, customerUpdate(customer)))
	if err != nil {
		return types.Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return decodeOne[types.Customer](r.logger, TableCustomers, resp)
}

func (r *CustomerRepository) Delete(ctx context.Context, userID int, id int64) error {
	resp, err := checked(r.client.From(TableCustomers).
		Eq("id", id).
		Eq("user_id", userID).
		ExecuteDelete(ctx))
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return expectAffected(resp)
}

// customerUpdate is the PATCH body; it leaves id, user_id and created_at alone.
func customerUpdate(c types.Customer) map[string]any {
	return map[string]any{
		"type":                c.Type,
		"name":                c.Name,
		"company_name":        c.CompanyName,
		"email":               c.Email,
		"phone":               c.Phone,
		"address":             c.Address,
		"credit_limit":        c.CreditLimit,
		"outstanding_balance": c.OutstandingBalance,
		"total_credit_issued": c.TotalCreditIssued,
		"is_active":           c.IsActive,
		"updated_at":          c.UpdatedAt,
	}
}

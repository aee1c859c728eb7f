package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/tabzpay/progress-sub002/types"
	"go.uber.org/zap"
)

// TemplateRepository reads and writes the loan_templates table.
// Templates have no update path.
type TemplateRepository struct {
	client *Client
	logger *zap.Logger
}

func NewTemplateRepository(client *Client, logger *zap.Logger) *TemplateRepository {
	return &TemplateRepository{client: client, logger: nopIfNil(logger)}
}

// ListByUser returns the user's templates, newest first.
func (r *TemplateRepository) ListByUser(ctx context.Context, userID int) ([]types.LoanTemplate, error) {
	resp, err := checked(r.client.From(TableTemplates).
		Select("*").
		Eq("user_id", userID).
		Order("created_at", false).
		Execute(ctx))
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return decodeRows[types.LoanTemplate](r.logger, TableTemplates, resp)
}

func (r *TemplateRepository) Create(ctx context.Context, tmpl types.LoanTemplate) (types.LoanTemplate, error) {
	tmpl.ID = 0
	tmpl.CreatedAt = time.Now().UTC()

	resp, err := checked(r.client.From(TableTemplates).ExecuteInsert(ctx, tmpl))
	if err != nil {
		return types.LoanTemplate{}, fmt.Errorf("create template: %w", err)
	}
	created, err := decodeOne[types.LoanTemplate](r.logger, TableTemplates, resp)
	if err != nil {
		return types.LoanTemplate{}, fmt.Errorf("create template: %w", err)
	}
	return created, nil
}

// Delete removes a template. The owner filter makes deleting another
// user's template a no-op that reports ErrNotFound.
func (r *TemplateRepository) Delete(ctx context.Context, userID int, id int64) error {
	resp, err := checked(r.client.From(TableTemplates).
		Eq("id", id).
		Eq("user_id", userID).
		ExecuteDelete(ctx))
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return expectAffected(resp)
}

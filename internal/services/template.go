package services

import (
	"context"
	"strings"

	"github.com/tabzpay/progress-sub002/types"
)

// TemplateRepository defines persistence operations for loan templates.
type TemplateRepository interface {
	ListByUser(ctx context.Context, userID int) ([]types.LoanTemplate, error)
	Create(ctx context.Context, tmpl types.LoanTemplate) (types.LoanTemplate, error)
	Delete(ctx context.Context, userID int, id int64) error
}

// TemplateService encapsulates loan template use-cases. Templates are
// created and deleted only.
type TemplateService struct {
	repo TemplateRepository
}

func NewTemplateService(repo TemplateRepository) *TemplateService {
	return &TemplateService{repo: repo}
}

func (s *TemplateService) List(ctx context.Context, userID int) ([]types.LoanTemplate, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *TemplateService) Create(ctx context.Context, userID int, name string, params types.TemplateParams) (types.LoanTemplate, error) {
	tmpl := types.LoanTemplate{
		UserID:         userID,
		Name:           strings.TrimSpace(name),
		TemplateParams: params,
	}
	if err := tmpl.Validate(); err != nil {
		return types.LoanTemplate{}, invalid(err)
	}
	return s.repo.Create(ctx, tmpl)
}

func (s *TemplateService) Delete(ctx context.Context, userID int, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}

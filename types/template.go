package types

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LoanTemplate is a reusable snapshot of loan-creation parameters.
// Templates are created and deleted; they are never updated in place.
type LoanTemplate struct {
	ID     int64  `json:"id,omitempty"`
	UserID int    `json:"user_id"`
	Name   string `json:"name"`
	TemplateParams
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// TemplateParams are the loan-creation fields captured by a template.
type TemplateParams struct {
	LoanType     LoanType        `json:"loan_type,omitempty"`
	Currency     string          `json:"currency,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      *time.Time      `json:"due_date,omitempty"`
	Note         string          `json:"note,omitempty"`
	PaymentTerms string          `json:"payment_terms,omitempty"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
}

// Validate checks the ownership and field contract of a template row.
func (t LoanTemplate) Validate() error {
	if t.UserID < 1 {
		return errors.New("template owner is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("template name is required")
	}
	if t.LoanType != "" && !t.LoanType.Valid() {
		return errors.New("invalid template loan type")
	}
	if t.Amount.IsNegative() || t.TaxRate.IsNegative() {
		return errors.New("template amounts must not be negative")
	}
	return nil
}

package types

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CustomerType distinguishes individual borrowers from companies.
type CustomerType string

const (
	CustomerIndividual CustomerType = "individual"
	CustomerCompany    CustomerType = "company"
)

// Valid reports whether t is a known customer type.
func (t CustomerType) Valid() bool {
	return t == CustomerIndividual || t == CustomerCompany
}

// Customer is a borrower owned by a user. Rows live in the managed backend.
type Customer struct {
	ID                 int64           `json:"id,omitempty"`
	UserID             int             `json:"user_id"`
	Type               CustomerType    `json:"type"`
	Name               string          `json:"name"`
	CompanyName        string          `json:"company_name,omitempty"`
	Email              string          `json:"email,omitempty"`
	Phone              string          `json:"phone,omitempty"`
	Address            string          `json:"address,omitempty"`
	CreditLimit        decimal.Decimal `json:"credit_limit"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	TotalCreditIssued  decimal.Decimal `json:"total_credit_issued"`
	IsActive           bool            `json:"is_active"`
	CreatedAt          time.Time       `json:"created_at,omitempty"`
	UpdatedAt          time.Time       `json:"updated_at,omitempty"`
}

// Validate checks the ownership and field contract of a customer row.
func (c Customer) Validate() error {
	if c.UserID < 1 {
		return errors.New("customer owner is required")
	}
	if !c.Type.Valid() {
		return errors.New("customer type must be individual or company")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("customer name is required")
	}
	if c.Type == CustomerCompany && strings.TrimSpace(c.CompanyName) == "" {
		return errors.New("company name is required for company customers")
	}
	if c.CreditLimit.IsNegative() || c.OutstandingBalance.IsNegative() || c.TotalCreditIssued.IsNegative() {
		return errors.New("customer amounts must not be negative")
	}
	return nil
}

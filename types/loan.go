package types

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LoanType is the kind of loan issued.
type LoanType string

const (
	LoanPersonal LoanType = "personal"
	LoanBusiness LoanType = "business"
	LoanGroup    LoanType = "group"
)

// Valid reports whether t is a known loan type.
func (t LoanType) Valid() bool {
	switch t {
	case LoanPersonal, LoanBusiness, LoanGroup:
		return true
	default:
		return false
	}
}

// LoanStatus is the lifecycle state of a loan. The set is closed; no
// transition rules are enforced between members.
type LoanStatus string

const (
	LoanPending   LoanStatus = "PENDING"
	LoanActive    LoanStatus = "ACTIVE"
	LoanPaid      LoanStatus = "PAID"
	LoanOverdue   LoanStatus = "OVERDUE"
	LoanDefaulted LoanStatus = "DEFAULTED"
	LoanCancelled LoanStatus = "CANCELLED"
)

// LoanStatuses lists every valid status in display order.
var LoanStatuses = []LoanStatus{
	LoanPending,
	LoanActive,
	LoanPaid,
	LoanOverdue,
	LoanDefaulted,
	LoanCancelled,
}

// Valid reports whether s is a member of the closed status set.
func (s LoanStatus) Valid() bool {
	for _, status := range LoanStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Loan belongs to a customer and to the user who issued it.
type Loan struct {
	ID           int64           `json:"id,omitempty"`
	CustomerID   int64           `json:"customer_id"`
	UserID       int             `json:"user_id"`
	GroupID      *int64          `json:"group_id,omitempty"`
	Type         LoanType        `json:"type"`
	Principal    decimal.Decimal `json:"principal"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	Currency     string          `json:"currency"`
	Status       LoanStatus      `json:"status"`
	DueDate      time.Time       `json:"due_date"`
	Note         string          `json:"note,omitempty"`
	CreatedAt    time.Time       `json:"created_at,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at,omitempty"`
}

// Validate checks the ownership and field contract of a loan row.
func (l Loan) Validate() error {
	if l.UserID < 1 {
		return errors.New("loan owner is required")
	}
	if l.CustomerID < 1 {
		return errors.New("loan customer is required")
	}
	if !l.Type.Valid() {
		return errors.New("loan type must be personal, business or group")
	}
	if l.Type == LoanGroup && l.GroupID == nil {
		return errors.New("group loans require a group")
	}
	if l.Type != LoanGroup && l.GroupID != nil {
		return errors.New("only group loans may reference a group")
	}
	if !l.Principal.IsPositive() {
		return errors.New("principal must be positive")
	}
	if l.InterestRate.IsNegative() {
		return errors.New("interest rate must not be negative")
	}
	if strings.TrimSpace(l.Currency) == "" {
		return errors.New("currency is required")
	}
	if !l.Status.Valid() {
		return errors.New("invalid loan status")
	}
	if l.DueDate.IsZero() {
		return errors.New("due date is required")
	}
	return nil
}

// LoanFilter narrows a loan listing. Zero values mean no filter.
type LoanFilter struct {
	Status     LoanStatus
	CustomerID int64
}

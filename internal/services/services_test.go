package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tabzpay/progress-sub002/internal/supabase"
	"github.com/tabzpay/progress-sub002/types"
)

type fakeCustomers struct {
	CustomerRepository
	byID map[int64]types.Customer
}

func (f *fakeCustomers) GetByID(_ context.Context, userID int, id int64) (types.Customer, error) {
	c, ok := f.byID[id]
	if !ok || c.UserID != userID {
		return types.Customer{}, supabase.ErrNotFound
	}
	return c, nil
}

type fakeLoans struct {
	LoanRepository
	created []types.Loan
	status  types.LoanStatus
}

func (f *fakeLoans) Create(_ context.Context, loan types.Loan) (types.Loan, error) {
	loan.ID = int64(len(f.created) + 1)
	f.created = append(f.created, loan)
	return loan, nil
}

func (f *fakeLoans) UpdateStatus(_ context.Context, _ int, id int64, status types.LoanStatus) (types.Loan, error) {
	f.status = status
	return types.Loan{ID: id, Status: status}, nil
}

func validLoan() types.Loan {
	return types.Loan{
		CustomerID:   3,
		Type:         types.LoanPersonal,
		Principal:    decimal.NewFromInt(1000),
		InterestRate: decimal.NewFromFloat(4.5),
		Currency:     "usd",
		DueDate:      time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func newCustomers() *fakeCustomers {
	return &fakeCustomers{byID: map[int64]types.Customer{
		3: {ID: 3, UserID: 7, Type: types.CustomerIndividual, Name: "Ada"},
		4: {ID: 4, UserID: 7, Type: types.CustomerIndividual, Name: "Grace"},
		5: {ID: 5, UserID: 8, Type: types.CustomerIndividual, Name: "Mallory"},
	}}
}

func newLoanService() (*LoanService, *fakeLoans) {
	loans := &fakeLoans{}
	groups := &fakeGroups{byID: map[int64]types.Group{
		20: {ID: 20, UserID: 7, Name: "Traders"},
		21: {ID: 21, UserID: 8, Name: "Elsewhere"},
	}}
	return NewLoanService(loans, newCustomers(), groups), loans
}

func TestLoanCreateDefaultsToPendingAndOwner(t *testing.T) {
	svc, loans := newLoanService()

	loan := validLoan()
	loan.UserID = 99
	created, err := svc.Create(context.Background(), 7, loan)
	require.NoError(t, err)
	require.Equal(t, types.LoanPending, created.Status)
	require.Equal(t, 7, created.UserID)
	require.Equal(t, "USD", created.Currency)
	require.Len(t, loans.created, 1)
}

func TestLoanCreateRejectsForeignCustomer(t *testing.T) {
	svc, loans := newLoanService()

	_, err := svc.Create(context.Background(), 8, validLoan())
	require.ErrorIs(t, err, ErrInvalid)
	require.Empty(t, loans.created)
}

func TestLoanCreateGroupLoanNeedsGroup(t *testing.T) {
	svc, _ := newLoanService()

	loan := validLoan()
	loan.Type = types.LoanGroup
	_, err := svc.Create(context.Background(), 7, loan)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestLoanCreateGroupMustBeOwned(t *testing.T) {
	svc, loans := newLoanService()

	for _, groupID := range []int64{900, 21} {
		loan := validLoan()
		loan.Type = types.LoanGroup
		loan.GroupID = &groupID
		_, err := svc.Create(context.Background(), 7, loan)
		require.ErrorIs(t, err, ErrInvalid)
	}
	require.Empty(t, loans.created)

	groupID := int64(20)
	loan := validLoan()
	loan.Type = types.LoanGroup
	loan.GroupID = &groupID
	created, err := svc.Create(context.Background(), 7, loan)
	require.NoError(t, err)
	require.Equal(t, &groupID, created.GroupID)
}

func TestLoanCreateRejectsGroupOnPersonalLoan(t *testing.T) {
	svc, loans := newLoanService()

	groupID := int64(20)
	loan := validLoan()
	loan.GroupID = &groupID
	_, err := svc.Create(context.Background(), 7, loan)
	require.ErrorIs(t, err, ErrInvalid)
	require.Empty(t, loans.created)
}

func TestLoanUpdateStatusClosedSet(t *testing.T) {
	svc, loans := newLoanService()

	for _, status := range types.LoanStatuses {
		_, err := svc.UpdateStatus(context.Background(), 7, 1, status)
		require.NoError(t, err)
		require.Equal(t, status, loans.status)
	}

	_, err := svc.UpdateStatus(context.Background(), 7, 1, "overdue")
	require.NoError(t, err)
	require.Equal(t, types.LoanOverdue, loans.status)

	_, err = svc.UpdateStatus(context.Background(), 7, 1, "WRITTEN_OFF")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestLoanListRejectsUnknownStatus(t *testing.T) {
	svc, _ := newLoanService()

	_, err := svc.List(context.Background(), 7, types.LoanFilter{Status: "LATE"})
	require.ErrorIs(t, err, ErrInvalid)
}

type fakeTemplates struct {
	TemplateRepository
	created []types.LoanTemplate
}

func (f *fakeTemplates) Create(_ context.Context, tmpl types.LoanTemplate) (types.LoanTemplate, error) {
	f.created = append(f.created, tmpl)
	return tmpl, nil
}

func TestTemplateCreateTrimsAndValidatesName(t *testing.T) {
	repo := &fakeTemplates{}
	svc := NewTemplateService(repo)

	_, err := svc.Create(context.Background(), 7, "   ", types.TemplateParams{})
	require.ErrorIs(t, err, ErrInvalid)
	require.Empty(t, repo.created)

	tmpl, err := svc.Create(context.Background(), 7, "  Weekly  ", types.TemplateParams{Currency: "KES"})
	require.NoError(t, err)
	require.Equal(t, "Weekly", tmpl.Name)
	require.Equal(t, 7, tmpl.UserID)
}

type fakeGroups struct {
	GroupRepository
	byID    map[int64]types.Group
	created []types.Group
}

func (f *fakeGroups) GetByID(_ context.Context, userID int, id int64) (types.Group, error) {
	g, ok := f.byID[id]
	if !ok || g.UserID != userID {
		return types.Group{}, supabase.ErrNotFound
	}
	return g, nil
}

func (f *fakeGroups) Create(_ context.Context, group types.Group) (types.Group, error) {
	f.created = append(f.created, group)
	return group, nil
}

func TestGroupCreateRejectsDuplicateMembers(t *testing.T) {
	repo := &fakeGroups{}
	svc := NewGroupService(repo, newCustomers())

	_, err := svc.Create(context.Background(), 7, types.Group{
		Name:    "Traders",
		Members: []types.GroupMember{{CustomerID: 3}, {CustomerID: 3}},
	})
	require.ErrorIs(t, err, ErrInvalid)
	require.Empty(t, repo.created)
}

func TestGroupCreateRequiresOwnedMembers(t *testing.T) {
	repo := &fakeGroups{}
	svc := NewGroupService(repo, newCustomers())

	for _, member := range []int64{5, 404} {
		_, err := svc.Create(context.Background(), 7, types.Group{
			Name:    "Traders",
			Members: []types.GroupMember{{CustomerID: 3}, {CustomerID: member}},
		})
		require.ErrorIs(t, err, ErrInvalid)
	}
	require.Empty(t, repo.created)

	group, err := svc.Create(context.Background(), 7, types.Group{
		Name:    "  Traders ",
		Members: []types.GroupMember{{CustomerID: 3}, {CustomerID: 4}},
	})
	require.NoError(t, err)
	require.Equal(t, "Traders", group.Name)
	require.Len(t, repo.created, 1)
}

package costs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-ledger/internal/ledger"
	"github.com/meridian-erp/meridian-ledger/internal/tenant"
)

type captureBuilder struct {
	input ledger.CreateEntryInput
	calls int
}

func (b *captureBuilder) CreateEntry(ctx context.Context, tn tenant.Tenant, in ledger.CreateEntryInput) (ledger.JournalEntry, error) {
	b.calls++
	b.input = in
	return ledger.JournalEntry{ID: 9, Status: ledger.EntryStatusPending, SourceType: in.SourceType}, nil
}

var costAccounts = AccountMap{Expense: 5100, Accrual: 2300}

func TestPostActualCostDebitsExpenseCreditsAccrual(t *testing.T) {
	builder := &captureBuilder{}
	tn, err := tenant.Parse("acme")
	require.NoError(t, err)

	projectID := int64(12)
	cost := ActualCost{
		ID:         uuid.New(),
		Reference:  "TS-2026-031",
		CompanyID:  1,
		ProjectID:  &projectID,
		IncurredAt: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Amount:     4475.25,
	}

	entry, err := PostActualCost(context.Background(), builder, tn, cost, costAccounts)
	require.NoError(t, err)
	require.NotNil(t, entry)

	in := builder.input
	require.Equal(t, ledger.SourceActualCost, in.SourceType)
	require.NotNil(t, in.ProjectID)
	require.Equal(t, projectID, *in.ProjectID)
	require.Equal(t, "Actual cost TS-2026-031", in.Description)
	require.Equal(t, int64(5100), in.Lines[0].AccountID)
	require.InDelta(t, 4475.25, in.Lines[0].Debit, 0.001)
	require.Equal(t, int64(2300), in.Lines[1].AccountID)
	require.InDelta(t, 4475.25, in.Lines[1].Credit, 0.001)
	require.Equal(t, "actual_costs", in.Lines[0].RelatedTable)
	require.NoError(t, in.Validate())
}

func TestPostActualCostUsesExplicitDescription(t *testing.T) {
	builder := &captureBuilder{}
	tn, err := tenant.Parse("acme")
	require.NoError(t, err)

	cost := ActualCost{
		ID:          uuid.New(),
		Reference:   "TS-2026-032",
		Description: "March subcontractor accrual",
		CompanyID:   1,
		IncurredAt:  time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Amount:      100,
	}

	_, err = PostActualCost(context.Background(), builder, tn, cost, costAccounts)
	require.NoError(t, err)
	require.Equal(t, "March subcontractor accrual", builder.input.Description)
}

func TestPostActualCostZeroAmountIsNoOp(t *testing.T) {
	builder := &captureBuilder{}
	tn, err := tenant.Parse("acme")
	require.NoError(t, err)

	entry, err := PostActualCost(context.Background(), builder, tn, ActualCost{ID: uuid.New(), CompanyID: 1}, costAccounts)
	require.NoError(t, err)
	require.Nil(t, entry)
	require.Zero(t, builder.calls)
}

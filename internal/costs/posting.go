package costs

import (
	"context"
	"fmt"

	"github.com/meridian-erp/meridian-ledger/internal/ledger"
	"github.com/meridian-erp/meridian-ledger/internal/tenant"
)

// Builder is the journal entry choke point the hook delegates to.
type Builder interface {
	CreateEntry(ctx context.Context, tn tenant.Tenant, in ledger.CreateEntryInput) (ledger.JournalEntry, error)
}

// PostActualCost maps an accrued cost into a balanced entry: debit
// expense, credit the accrual account, tagged with project id and
// reference. A zero amount is a silent no-op.
func PostActualCost(ctx context.Context, b Builder, tn tenant.Tenant, cost ActualCost, accounts AccountMap) (*ledger.JournalEntry, error) {
	if cost.Amount == 0 {
		return nil, nil
	}
	ref := cost.ID
	memo := cost.Description
	if memo == "" {
		memo = fmt.Sprintf("Actual cost %s", cost.Reference)
	}
	entry, err := b.CreateEntry(ctx, tn, ledger.CreateEntryInput{
		CompanyID:   cost.CompanyID,
		ProjectID:   cost.ProjectID,
		Date:        cost.IncurredAt,
		Description: memo,
		SourceType:  ledger.SourceActualCost,
		SourceRef:   &ref,
		CreatedBy:   cost.CreatedBy,
		Lines: []ledger.LineInput{
			{AccountID: accounts.Expense, Debit: cost.Amount, Memo: memo, RelatedTable: "actual_costs", RelatedID: &ref},
			{AccountID: accounts.Accrual, Credit: cost.Amount, Memo: memo, RelatedTable: "actual_costs", RelatedID: &ref},
		},
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

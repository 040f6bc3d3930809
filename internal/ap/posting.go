package ap

import (
	"context"
	"fmt"

	"github.com/meridian-erp/meridian-ledger/internal/ledger"
	"github.com/meridian-erp/meridian-ledger/internal/tenant"
)

// Builder is the journal entry choke point every hook delegates to.
type Builder interface {
	CreateEntry(ctx context.Context, tn tenant.Tenant, in ledger.CreateEntryInput) (ledger.JournalEntry, error)
}

// PostInvoice maps an AP invoice into a balanced entry: debit the
// configured expense account, credit the AP liability. A zero amount
// is a silent no-op, not an error.
func PostInvoice(ctx context.Context, b Builder, tn tenant.Tenant, inv Invoice, accounts AccountMap) (*ledger.JournalEntry, error) {
	if inv.TotalAmount == 0 {
		return nil, nil
	}
	ref := inv.ID
	memo := fmt.Sprintf("AP invoice %s (%s)", inv.Number, inv.VendorName)
	entry, err := b.CreateEntry(ctx, tn, ledger.CreateEntryInput{
		CompanyID:   inv.CompanyID,
		ProjectID:   inv.ProjectID,
		Date:        inv.InvoiceDate,
		Description: memo,
		SourceType:  ledger.SourceAPInvoice,
		SourceRef:   &ref,
		CreatedBy:   inv.CreatedBy,
		Lines: []ledger.LineInput{
			{AccountID: accounts.Expense, Debit: inv.TotalAmount, Memo: memo, RelatedTable: "ap_invoices", RelatedID: &ref},
			{AccountID: accounts.Payable, Credit: inv.TotalAmount, Memo: memo, RelatedTable: "ap_invoices", RelatedID: &ref},
		},
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// PostPayment maps an AP payment into a balanced entry: debit the AP
// liability, credit cash.
func PostPayment(ctx context.Context, b Builder, tn tenant.Tenant, pay Payment, accounts AccountMap) (*ledger.JournalEntry, error) {
	if pay.Amount == 0 {
		return nil, nil
	}
	ref := pay.ID
	memo := fmt.Sprintf("AP payment %s (%s)", pay.Number, pay.VendorName)
	entry, err := b.CreateEntry(ctx, tn, ledger.CreateEntryInput{
		CompanyID:   pay.CompanyID,
		Date:        pay.PaidAt,
		Description: memo,
		SourceType:  ledger.SourceAPPayment,
		SourceRef:   &ref,
		CreatedBy:   pay.CreatedBy,
		Lines: []ledger.LineInput{
			{AccountID: accounts.Payable, Debit: pay.Amount, Memo: memo, RelatedTable: "ap_payments", RelatedID: &ref},
			{AccountID: accounts.Cash, Credit: pay.Amount, Memo: memo, RelatedTable: "ap_payments", RelatedID: &ref},
		},
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

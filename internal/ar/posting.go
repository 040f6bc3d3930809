package ar

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

// PostInvoice maps an AR invoice into a balanced entry: debit the
// receivable account, credit revenue. A zero amount is a silent no-op.
func PostInvoice(ctx context.Context, b Builder, tn tenant.Tenant, inv Invoice, accounts AccountMap) (*ledger.JournalEntry, error) {
	if inv.TotalAmount == 0 {
		return nil, nil
	}
	ref := inv.ID
	memo := fmt.Sprintf("AR invoice %s (%s)", inv.Number, inv.CustomerName)
	entry, err := b.CreateEntry(ctx, tn, ledger.CreateEntryInput{
		CompanyID:   inv.CompanyID,
		ProjectID:   inv.ProjectID,
		Date:        inv.InvoiceDate,
		Description: memo,
		SourceType:  ledger.SourceARInvoice,
		SourceRef:   &ref,
		CreatedBy:   inv.CreatedBy,
		Lines: []ledger.LineInput{
			{AccountID: accounts.Receivable, Debit: inv.TotalAmount, Memo: memo, RelatedTable: "ar_invoices", RelatedID: &ref},
			{AccountID: accounts.Revenue, Credit: inv.TotalAmount, Memo: memo, RelatedTable: "ar_invoices", RelatedID: &ref},
		},
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// PostReceipt maps an AR receipt into a balanced entry: debit cash,
// credit the receivable account.
func PostReceipt(ctx context.Context, b Builder, tn tenant.Tenant, rcpt Receipt, accounts AccountMap) (*ledger.JournalEntry, error) {
	if rcpt.Amount == 0 {
		return nil, nil
	}
	ref := rcpt.ID
	memo := fmt.Sprintf("AR receipt %s (%s)", rcpt.Number, rcpt.CustomerName)
	entry, err := b.CreateEntry(ctx, tn, ledger.CreateEntryInput{
		CompanyID:   rcpt.CompanyID,
		Date:        rcpt.ReceivedAt,
		Description: memo,
		SourceType:  ledger.SourceARReceipt,
		SourceRef:   &ref,
		CreatedBy:   rcpt.CreatedBy,
		Lines: []ledger.LineInput{
			{AccountID: accounts.Cash, Debit: rcpt.Amount, Memo: memo, RelatedTable: "ar_receipts", RelatedID: &ref},
			{AccountID: accounts.Receivable, Credit: rcpt.Amount, Memo: memo, RelatedTable: "ar_receipts", RelatedID: &ref},
		},
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

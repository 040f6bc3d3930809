package ar

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
	return ledger.JournalEntry{ID: 7, Status: ledger.EntryStatusPending, SourceType: in.SourceType}, nil
}

var arAccounts = AccountMap{Receivable: 1200, Revenue: 4000, Cash: 1000}

func TestPostInvoiceDebitsReceivableCreditsRevenue(t *testing.T) {
	builder := &captureBuilder{}
	tn, err := tenant.Parse("acme")
	require.NoError(t, err)

	inv := Invoice{
		ID:           uuid.New(),
		Number:       "SI-100",
		CustomerName: "Globex",
		CompanyID:    1,
		InvoiceDate:  time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		TotalAmount:  980.00,
	}

	entry, err := PostInvoice(context.Background(), builder, tn, inv, arAccounts)
	require.NoError(t, err)
	require.NotNil(t, entry)

	in := builder.input
	require.Equal(t, ledger.SourceARInvoice, in.SourceType)
	require.NotNil(t, in.SourceRef)
	require.Equal(t, inv.ID, *in.SourceRef)
	require.Equal(t, int64(1200), in.Lines[0].AccountID)
	require.InDelta(t, 980.00, in.Lines[0].Debit, 0.001)
	require.Equal(t, int64(4000), in.Lines[1].AccountID)
	require.InDelta(t, 980.00, in.Lines[1].Credit, 0.001)
	require.Equal(t, "ar_invoices", in.Lines[0].RelatedTable)
	require.NoError(t, in.Validate())
}

func TestPostReceiptDebitsCashCreditsReceivable(t *testing.T) {
	builder := &captureBuilder{}
	tn, err := tenant.Parse("acme")
	require.NoError(t, err)

	rcpt := Receipt{
		ID:           uuid.New(),
		Number:       "RC-555",
		CustomerName: "Globex",
		CompanyID:    1,
		ReceivedAt:   time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC),
		Amount:       980.00,
	}

	entry, err := PostReceipt(context.Background(), builder, tn, rcpt, arAccounts)
	require.NoError(t, err)
	require.NotNil(t, entry)

	in := builder.input
	require.Equal(t, ledger.SourceARReceipt, in.SourceType)
	require.Equal(t, int64(1000), in.Lines[0].AccountID)
	require.InDelta(t, 980.00, in.Lines[0].Debit, 0.001)
	require.Equal(t, int64(1200), in.Lines[1].AccountID)
	require.InDelta(t, 980.00, in.Lines[1].Credit, 0.001)
	require.Equal(t, "ar_receipts", in.Lines[0].RelatedTable)
	require.NoError(t, in.Validate())
}

func TestZeroAmountsAreNoOps(t *testing.T) {
	builder := &captureBuilder{}
	tn, err := tenant.Parse("acme")
	require.NoError(t, err)

	entry, err := PostInvoice(context.Background(), builder, tn, Invoice{ID: uuid.New(), CompanyID: 1}, arAccounts)
	require.NoError(t, err)
	require.Nil(t, entry)

	entry, err = PostReceipt(context.Background(), builder, tn, Receipt{ID: uuid.New(), CompanyID: 1}, arAccounts)
	require.NoError(t, err)
	require.Nil(t, entry)
	require.Zero(t, builder.calls)
}

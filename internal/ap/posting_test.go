package ap

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
	return ledger.JournalEntry{ID: 42, Status: ledger.EntryStatusPending, SourceType: in.SourceType}, nil
}

var apAccounts = AccountMap{Expense: 6000, Payable: 2100, Cash: 1000}

func TestPostInvoiceDebitsExpenseCreditsPayable(t *testing.T) {
	builder := &captureBuilder{}
	tn, err := tenant.Parse("acme")
	require.NoError(t, err)

	inv := Invoice{
		ID:          uuid.New(),
		Number:      "INV-001",
		VendorName:  "Acme Supplies",
		CompanyID:   1,
		InvoiceDate: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		TotalAmount: 1200.50,
		CreatedBy:   3,
	}

	entry, err := PostInvoice(context.Background(), builder, tn, inv, apAccounts)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, 1, builder.calls)

	in := builder.input
	require.Equal(t, ledger.SourceAPInvoice, in.SourceType)
	require.NotNil(t, in.SourceRef)
	require.Equal(t, inv.ID, *in.SourceRef)
	require.Len(t, in.Lines, 2)
	require.Equal(t, int64(6000), in.Lines[0].AccountID)
	require.InDelta(t, 1200.50, in.Lines[0].Debit, 0.001)
	require.Equal(t, int64(2100), in.Lines[1].AccountID)
	require.InDelta(t, 1200.50, in.Lines[1].Credit, 0.001)
	require.Equal(t, "ap_invoices", in.Lines[0].RelatedTable)
	require.NoError(t, in.Validate())
}

func TestPostInvoiceZeroAmountIsNoOp(t *testing.T) {
	builder := &captureBuilder{}
	tn, err := tenant.Parse("acme")
	require.NoError(t, err)

	entry, err := PostInvoice(context.Background(), builder, tn, Invoice{ID: uuid.New(), CompanyID: 1}, apAccounts)
	require.NoError(t, err)
	require.Nil(t, entry)
	require.Zero(t, builder.calls)
}

func TestPostPaymentDebitsPayableCreditsCash(t *testing.T) {
	builder := &captureBuilder{}
	tn, err := tenant.Parse("acme")
	require.NoError(t, err)

	pay := Payment{
		ID:         uuid.New(),
		Number:     "PAY-009",
		VendorName: "Acme Supplies",
		CompanyID:  1,
		PaidAt:     time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		Amount:     1200.50,
	}

	entry, err := PostPayment(context.Background(), builder, tn, pay, apAccounts)
	require.NoError(t, err)
	require.NotNil(t, entry)

	in := builder.input
	require.Equal(t, ledger.SourceAPPayment, in.SourceType)
	require.Equal(t, int64(2100), in.Lines[0].AccountID)
	require.InDelta(t, 1200.50, in.Lines[0].Debit, 0.001)
	require.Equal(t, int64(1000), in.Lines[1].AccountID)
	require.InDelta(t, 1200.50, in.Lines[1].Credit, 0.001)
	require.Equal(t, "ap_payments", in.Lines[0].RelatedTable)
	require.NoError(t, in.Validate())
}

func TestPostPaymentZeroAmountIsNoOp(t *testing.T) {
	builder := &captureBuilder{}
	tn, err := tenant.Parse("acme")
	require.NoError(t, err)

	entry, err := PostPayment(context.Background(), builder, tn, Payment{ID: uuid.New(), CompanyID: 1}, apAccounts)
	require.NoError(t, err)
	require.Nil(t, entry)
	require.Zero(t, builder.calls)
}

package ledger

import (
	"time"

	"github.com/google/uuid"
)

// EntryStatus enumerates the journal entry lifecycle. Transitions are
// one-directional: pending -> posted -> reversed.
type EntryStatus string

const (
	EntryStatusPending  EntryStatus = "pending"
	EntryStatusPosted   EntryStatus = "posted"
	EntryStatusReversed EntryStatus = "reversed"
)

// SourceType tags the module that originated a journal entry.
type SourceType string

const (
	SourceManual       SourceType = "manual"
	SourceAPInvoice    SourceType = "ap_invoice"
	SourceAPPayment    SourceType = "ap_payment"
	SourceARInvoice    SourceType = "ar_invoice"
	SourceARReceipt    SourceType = "ar_receipt"
	SourceActualCost   SourceType = "actual_cost"
	SourceIntercompany SourceType = "intercompany"
	SourceReversal     SourceType = "reversal"
)

// QueueStatus enumerates posting queue lifecycle values.
type QueueStatus string

const (
	QueueStatusPending QueueStatus = "pending"
	QueueStatusPosted  QueueStatus = "posted"
	QueueStatusFailed  QueueStatus = "failed"
)

// JournalEntry is one balanced accounting transaction.
type JournalEntry struct {
	ID          int64              `json:"id"`
	CompanyID   int64              `json:"company_id"`
	ProjectID   *int64             `json:"project_id,omitempty"`
	Date        time.Time          `json:"date"`
	Description string             `json:"description"`
	SourceType  SourceType         `json:"source_type"`
	Status      EntryStatus        `json:"status"`
	ReversalOf  *int64             `json:"reversal_of,omitempty"`
	CreatedBy   int64              `json:"created_by"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Lines       []JournalEntryLine `json:"lines,omitempty"`
}

// Period derives the accounting period bucket from the entry date.
func (e JournalEntry) Period() string {
	return e.Date.Format("2006-01")
}

// JournalEntryLine is a single debit or credit against one account,
// owned exclusively by its entry.
type JournalEntryLine struct {
	ID           int64      `json:"id"`
	EntryID      int64      `json:"entry_id"`
	AccountID    int64      `json:"account_id"`
	Debit        float64    `json:"debit"`
	Credit       float64    `json:"credit"`
	Memo         string     `json:"memo"`
	RelatedTable string     `json:"related_table,omitempty"`
	RelatedID    *uuid.UUID `json:"related_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// LedgerBalance is the running aggregate for one account in one period.
// Mutated only by the posting processor via additive upserts.
type LedgerBalance struct {
	AccountID   int64     `json:"account_id"`
	Period      string    `json:"period"`
	DebitTotal  float64   `json:"debit_total"`
	CreditTotal float64   `json:"credit_total"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Net returns the signed position (debits minus credits).
func (b LedgerBalance) Net() float64 {
	return b.DebitTotal - b.CreditTotal
}

// PostingQueueEntry tracks the posting lifecycle of a journal entry.
type PostingQueueEntry struct {
	ID        int64       `json:"id"`
	EntryID   int64       `json:"entry_id"`
	Status    QueueStatus `json:"status"`
	LastError *string     `json:"last_error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

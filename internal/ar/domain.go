// Package ar adapts accounts-receivable events into journal entries.
package ar

import (
	"time"

	"github.com/google/uuid"
)

// AccountMap supplies the ledger accounts the AR hooks post against,
// taken from the caller's chart-of-accounts configuration.
type AccountMap struct {
	Receivable int64
	Revenue    int64
	Cash       int64
}

// Invoice is the AR invoice payload the posting hook requires.
type Invoice struct {
	ID           uuid.UUID
	Number       string
	CustomerName string
	CompanyID    int64
	ProjectID    *int64
	InvoiceDate  time.Time
	TotalAmount  float64
	CreatedBy    int64
}

// Receipt is the AR receipt payload the posting hook requires.
type Receipt struct {
	ID           uuid.UUID
	Number       string
	CustomerName string
	CompanyID    int64
	ReceivedAt   time.Time
	Amount       float64
	CreatedBy    int64
}

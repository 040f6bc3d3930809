// Package ap adapts accounts-payable events into journal entries.
package ap

import (
	"time"

	"github.com/google/uuid"
)

// AccountMap supplies the ledger accounts the AP hooks post against.
// It comes from the caller's chart-of-accounts configuration; nothing
// here is hard-coded or looked up implicitly.
type AccountMap struct {
	Expense int64
	Payable int64
	Cash    int64
}

// Invoice is the AP invoice payload the posting hook requires.
type Invoice struct {
	ID          uuid.UUID
	Number      string
	VendorName  string
	CompanyID   int64
	ProjectID   *int64
	InvoiceDate time.Time
	TotalAmount float64
	CreatedBy   int64
}

// Payment is the AP payment payload the posting hook requires.
type Payment struct {
	ID         uuid.UUID
	Number     string
	VendorName string
	CompanyID  int64
	PaidAt     time.Time
	Amount     float64
	CreatedBy  int64
}

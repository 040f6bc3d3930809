// Package costs adapts accrued actual-cost records into journal entries.
package costs

import (
	"time"

	"github.com/google/uuid"
)

// AccountMap supplies the ledger accounts the actual-cost hook posts
// against, taken from the caller's chart-of-accounts configuration.
type AccountMap struct {
	Expense int64
	Accrual int64
}

// ActualCost is the accrued cost payload the posting hook requires.
type ActualCost struct {
	ID          uuid.UUID
	Reference   string
	Description string
	CompanyID   int64
	ProjectID   *int64
	IncurredAt  time.Time
	Amount      float64
	CreatedBy   int64
}

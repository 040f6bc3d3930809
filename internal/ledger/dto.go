package ledger

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// BalanceTolerance is the fixed epsilon absorbing floating point noise
// when comparing debit and credit totals. Stored amounts are never
// rounded; only the comparison is tolerant.
const BalanceTolerance = 0.005

// LineInput describes one journal line for entry creation.
type LineInput struct {
	AccountID    int64
	Debit        float64
	Credit       float64
	Memo         string
	RelatedTable string
	RelatedID    *uuid.UUID
}

// CreateEntryInput groups fields required to create a journal entry.
type CreateEntryInput struct {
	CompanyID   int64
	ProjectID   *int64
	Date        time.Time
	Description string
	SourceType  SourceType
	// SourceRef, when set, is recorded in source_links under a unique
	// constraint so that retried submissions of the same originating
	// record cannot create a duplicate entry.
	SourceRef  *uuid.UUID
	ReversalOf *int64
	CreatedBy  int64
	Lines      []LineInput
}

// Validate enforces the structural rules every entry must satisfy.
// This runs inside the single choke point through which all module
// hooks and the reversal engine pass.
func (in CreateEntryInput) Validate() error {
	if len(in.Lines) == 0 {
		return fmt.Errorf("%w: must have at least one line", ErrValidation)
	}
	if in.CompanyID == 0 {
		return fmt.Errorf("%w: company required", ErrValidation)
	}
	if in.Date.IsZero() {
		return fmt.Errorf("%w: entry date required", ErrValidation)
	}
	if in.SourceType == "" {
		return fmt.Errorf("%w: source type required", ErrValidation)
	}
	var totalDebit, totalCredit float64
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return fmt.Errorf("%w: line %d missing account", ErrValidation, idx)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return fmt.Errorf("%w: line %d negative amount", ErrValidation, idx)
		}
		totalDebit += line.Debit
		totalCredit += line.Credit
	}
	if math.Abs(totalDebit-totalCredit) > BalanceTolerance {
		return fmt.Errorf("%w: does not balance (debit %.2f, credit %.2f)", ErrValidation, totalDebit, totalCredit)
	}
	return nil
}

// ReverseInput wraps parameters for reversing a posted entry.
type ReverseInput struct {
	EntryID int64
	ActorID int64
	Memo    string
}

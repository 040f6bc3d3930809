// Package mappings stores the chart-of-accounts mapping used to build
// the account maps handed to the posting hooks. The posting engine
// itself never resolves accounts implicitly; callers look keys up here
// and pass explicit account ids.
package mappings

import (
	"context"
	"errors"
	"time"

	"github.com/meridian-erp/meridian-ledger/internal/tenant"
)

// AccountMapping links a module integration key to a ledger account.
type AccountMapping struct {
	Module    string    `json:"module"`
	Key       string    `json:"key"`
	AccountID int64     `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrNotFound indicates a missing mapping row.
var ErrNotFound = errors.New("mappings: account mapping not found")

// Source resolves mapping keys to account ids.
type Source interface {
	Lookup(ctx context.Context, tn tenant.Tenant, module, key string) (int64, error)
}

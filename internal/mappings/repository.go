package mappings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-ledger/internal/tenant"
)

// Repository encapsulates DB operations for account mappings.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed mapping store.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Get resolves an account mapping for the specified key.
func (r *Repository) Get(ctx context.Context, tn tenant.Tenant, module, key string) (AccountMapping, error) {
	if module == "" || key == "" {
		return AccountMapping{}, errors.New("mappings: module and key required")
	}
	q := fmt.Sprintf(`SELECT module, key, account_id, created_at, updated_at FROM %s.account_mappings WHERE module=$1 AND key=$2`, tn.Schema())
	var mapping AccountMapping
	err := r.db.QueryRow(ctx, q, normalize(module), normalize(key)).
		Scan(&mapping.Module, &mapping.Key, &mapping.AccountID, &mapping.CreatedAt, &mapping.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountMapping{}, fmt.Errorf("%w: %s/%s", ErrNotFound, module, key)
		}
		return AccountMapping{}, err
	}
	return mapping, nil
}

// Lookup implements Source.
func (r *Repository) Lookup(ctx context.Context, tn tenant.Tenant, module, key string) (int64, error) {
	mapping, err := r.Get(ctx, tn, module, key)
	if err != nil {
		return 0, err
	}
	return mapping.AccountID, nil
}

// Upsert creates or replaces a mapping row.
func (r *Repository) Upsert(ctx context.Context, tn tenant.Tenant, module, key string, accountID int64) (AccountMapping, error) {
	if module == "" || key == "" {
		return AccountMapping{}, errors.New("mappings: module and key required")
	}
	if accountID == 0 {
		return AccountMapping{}, errors.New("mappings: account id required")
	}
	q := fmt.Sprintf(`INSERT INTO %s.account_mappings (module, key, account_id)
VALUES ($1,$2,$3)
ON CONFLICT (module, key) DO UPDATE SET account_id = EXCLUDED.account_id, updated_at = NOW()
RETURNING module, key, account_id, created_at, updated_at`, tn.Schema())
	var mapping AccountMapping
	err := r.db.QueryRow(ctx, q, normalize(module), normalize(key), accountID).
		Scan(&mapping.Module, &mapping.Key, &mapping.AccountID, &mapping.CreatedAt, &mapping.UpdatedAt)
	if err != nil {
		return AccountMapping{}, err
	}
	return mapping, nil
}

// List returns every mapping for a module.
func (r *Repository) List(ctx context.Context, tn tenant.Tenant, module string) ([]AccountMapping, error) {
	q := fmt.Sprintf(`SELECT module, key, account_id, created_at, updated_at FROM %s.account_mappings WHERE ($1 = '' OR module = $1) ORDER BY module, key`, tn.Schema())
	rows, err := r.db.Query(ctx, q, normalize(module))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountMapping
	for rows.Next() {
		var mapping AccountMapping
		if err := rows.Scan(&mapping.Module, &mapping.Key, &mapping.AccountID, &mapping.CreatedAt, &mapping.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, mapping)
	}
	return out, rows.Err()
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

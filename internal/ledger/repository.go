package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-ledger/internal/tenant"
)

// BalanceDelta is one account's net contribution from a posted entry.
type BalanceDelta struct {
	AccountID int64
	Period    string
	Debit     float64
	Credit    float64
}

// PeriodImbalance reports a period whose posted lines drift from the
// aggregated balances. Produced by the integrity job.
type PeriodImbalance struct {
	Period      string
	LineDebit   float64
	LineCredit  float64
	TotalDebit  float64
	TotalCredit float64
}

// Repository encapsulates DB operations for the ledger store.
type Repository interface {
	ListEntries(ctx context.Context, tn tenant.Tenant, limit int) ([]JournalEntry, error)
	GetEntry(ctx context.Context, tn tenant.Tenant, entryID int64) (JournalEntry, error)
	ListQueue(ctx context.Context, tn tenant.Tenant, status QueueStatus, limit int) ([]PostingQueueEntry, error)
	MarkQueueFailed(ctx context.Context, tn tenant.Tenant, entryID int64, cause string) error
	GetBalance(ctx context.Context, tn tenant.Tenant, accountID int64, period string) (LedgerBalance, error)
	FindImbalances(ctx context.Context, tn tenant.Tenant, tolerance float64) ([]PeriodImbalance, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the mutations available inside one unit of work.
// Every multi-statement operation of the engine runs through exactly
// one of these transactions.
type TxRepository interface {
	InsertEntry(ctx context.Context, tn tenant.Tenant, in CreateEntryInput) (JournalEntry, error)
	InsertLines(ctx context.Context, tn tenant.Tenant, entryID int64, lines []LineInput) error
	InsertQueueEntry(ctx context.Context, tn tenant.Tenant, entryID int64) (PostingQueueEntry, error)
	LinkSource(ctx context.Context, tn tenant.Tenant, module SourceType, ref uuid.UUID, entryID int64) error
	GetEntryForUpdate(ctx context.Context, tn tenant.Tenant, entryID int64) (JournalEntry, error)
	GetLines(ctx context.Context, tn tenant.Tenant, entryID int64) ([]JournalEntryLine, error)
	UpdateEntryStatus(ctx context.Context, tn tenant.Tenant, entryID int64, status EntryStatus) error
	UpsertBalance(ctx context.Context, tn tenant.Tenant, delta BalanceDelta) error
	GetQueueForUpdate(ctx context.Context, tn tenant.Tenant, queueID int64) (PostingQueueEntry, error)
	UpdateQueueByEntry(ctx context.Context, tn tenant.Tenant, entryID int64, status QueueStatus, lastError *string) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed ledger store.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, company_id, project_id, entry_date, description, source_type, status, reversal_of, created_by, created_at, updated_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.CompanyID, &e.ProjectID, &e.Date, &e.Description, &e.SourceType, &e.Status, &e.ReversalOf, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *repository) ListEntries(ctx context.Context, tn tenant.Tenant, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	q := fmt.Sprintf(`SELECT %s FROM %s.journal_entries ORDER BY id DESC LIMIT $1`, entryColumns, tn.Schema())
	rows, err := r.db.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) GetEntry(ctx context.Context, tn tenant.Tenant, entryID int64) (JournalEntry, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s.journal_entries WHERE id=$1`, entryColumns, tn.Schema())
	entry, err := scanEntry(r.db.QueryRow(ctx, q, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, fmt.Errorf("%w: entry %d", ErrNotFound, entryID)
		}
		return JournalEntry{}, err
	}
	lines, err := queryLines(ctx, r.db, tn, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

func (r *repository) ListQueue(ctx context.Context, tn tenant.Tenant, status QueueStatus, limit int) ([]PostingQueueEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	q := fmt.Sprintf(`SELECT id, entry_id, status, last_error, created_at, updated_at FROM %s.posting_queue WHERE ($1 = '' OR status = $1) ORDER BY id ASC LIMIT $2`, tn.Schema())
	rows, err := r.db.Query(ctx, q, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PostingQueueEntry
	for rows.Next() {
		var item PostingQueueEntry
		if err := rows.Scan(&item.ID, &item.EntryID, &item.Status, &item.LastError, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// MarkQueueFailed records a posting failure outside the aborted unit of
// work so the error survives the rollback.
func (r *repository) MarkQueueFailed(ctx context.Context, tn tenant.Tenant, entryID int64, cause string) error {
	q := fmt.Sprintf(`UPDATE %s.posting_queue SET status='failed', last_error=$2, updated_at=NOW() WHERE entry_id=$1`, tn.Schema())
	_, err := r.db.Exec(ctx, q, entryID, cause)
	return err
}

func (r *repository) GetBalance(ctx context.Context, tn tenant.Tenant, accountID int64, period string) (LedgerBalance, error) {
	q := fmt.Sprintf(`SELECT account_id, period, debit_total, credit_total, updated_at FROM %s.ledger_balances WHERE account_id=$1 AND period=$2`, tn.Schema())
	var b LedgerBalance
	err := r.db.QueryRow(ctx, q, accountID, period).Scan(&b.AccountID, &b.Period, &b.DebitTotal, &b.CreditTotal, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LedgerBalance{}, fmt.Errorf("%w: balance for account %d period %s", ErrNotFound, accountID, period)
		}
		return LedgerBalance{}, err
	}
	return b, nil
}

func (r *repository) FindImbalances(ctx context.Context, tn tenant.Tenant, tolerance float64) ([]PeriodImbalance, error) {
	q := fmt.Sprintf(`
WITH lines AS (
    SELECT to_char(e.entry_date, 'YYYY-MM') AS period, SUM(l.debit) AS line_debit, SUM(l.credit) AS line_credit
    FROM %[1]s.journal_entries e
    JOIN %[1]s.journal_entry_lines l ON l.entry_id = e.id
    WHERE e.status IN ('posted', 'reversed')
    GROUP BY 1
), balances AS (
    SELECT period, SUM(debit_total) AS total_debit, SUM(credit_total) AS total_credit
    FROM %[1]s.ledger_balances GROUP BY 1
)
SELECT l.period, l.line_debit, l.line_credit, COALESCE(b.total_debit, 0), COALESCE(b.total_credit, 0)
FROM lines l
LEFT JOIN balances b ON b.period = l.period
WHERE ABS(l.line_debit - COALESCE(b.total_debit, 0)) > $1
   OR ABS(l.line_credit - COALESCE(b.total_credit, 0)) > $1
ORDER BY l.period`, tn.Schema())
	rows, err := r.db.Query(ctx, q, tolerance)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var drift []PeriodImbalance
	for rows.Next() {
		var d PeriodImbalance
		if err := rows.Scan(&d.Period, &d.LineDebit, &d.LineCredit, &d.TotalDebit, &d.TotalCredit); err != nil {
			return nil, err
		}
		drift = append(drift, d)
	}
	return drift, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertEntry(ctx context.Context, tn tenant.Tenant, in CreateEntryInput) (JournalEntry, error) {
	q := fmt.Sprintf(`INSERT INTO %s.journal_entries (company_id, project_id, entry_date, description, source_type, status, reversal_of, created_by)
VALUES ($1,$2,$3,$4,$5,'pending',$6,$7) RETURNING id, created_at, updated_at`, tn.Schema())
	entry := JournalEntry{
		CompanyID:   in.CompanyID,
		ProjectID:   in.ProjectID,
		Date:        in.Date,
		Description: in.Description,
		SourceType:  in.SourceType,
		Status:      EntryStatusPending,
		ReversalOf:  in.ReversalOf,
		CreatedBy:   in.CreatedBy,
	}
	row := r.tx.QueryRow(ctx, q, in.CompanyID, in.ProjectID, in.Date, in.Description, in.SourceType, in.ReversalOf, in.CreatedBy)
	if err := row.Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertLines(ctx context.Context, tn tenant.Tenant, entryID int64, lines []LineInput) error {
	q := fmt.Sprintf(`INSERT INTO %s.journal_entry_lines (entry_id, account_id, debit, credit, memo, related_table, related_id)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, tn.Schema())
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, q, entryID, line.AccountID, toNumeric(line.Debit), toNumeric(line.Credit), line.Memo, nullString(line.RelatedTable), line.RelatedID); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) InsertQueueEntry(ctx context.Context, tn tenant.Tenant, entryID int64) (PostingQueueEntry, error) {
	q := fmt.Sprintf(`INSERT INTO %s.posting_queue (entry_id, status) VALUES ($1,'pending') RETURNING id, created_at, updated_at`, tn.Schema())
	item := PostingQueueEntry{EntryID: entryID, Status: QueueStatusPending}
	if err := r.tx.QueryRow(ctx, q, entryID).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return PostingQueueEntry{}, err
	}
	return item, nil
}

func (r *txRepository) LinkSource(ctx context.Context, tn tenant.Tenant, module SourceType, ref uuid.UUID, entryID int64) error {
	q := fmt.Sprintf(`INSERT INTO %s.source_links (module, ref_id, entry_id) VALUES ($1,$2,$3)`, tn.Schema())
	if _, err := r.tx.Exec(ctx, q, module, ref, entryID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s %s", ErrSourceLinked, module, ref)
		}
		return err
	}
	return nil
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, tn tenant.Tenant, entryID int64) (JournalEntry, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s.journal_entries WHERE id=$1 FOR UPDATE`, entryColumns, tn.Schema())
	entry, err := scanEntry(r.tx.QueryRow(ctx, q, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, fmt.Errorf("%w: entry %d", ErrNotFound, entryID)
		}
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) GetLines(ctx context.Context, tn tenant.Tenant, entryID int64) ([]JournalEntryLine, error) {
	return queryLines(ctx, r.tx, tn, entryID)
}

func (r *txRepository) UpdateEntryStatus(ctx context.Context, tn tenant.Tenant, entryID int64, status EntryStatus) error {
	q := fmt.Sprintf(`UPDATE %s.journal_entries SET status=$2, updated_at=NOW() WHERE id=$1`, tn.Schema())
	cmd, err := r.tx.Exec(ctx, q, entryID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: entry %d", ErrNotFound, entryID)
	}
	return nil
}

// UpsertBalance adds the delta to the (account, period) aggregate.
// Additive and associative, so concurrent postings compose regardless
// of execution order.
func (r *txRepository) UpsertBalance(ctx context.Context, tn tenant.Tenant, delta BalanceDelta) error {
	q := fmt.Sprintf(`INSERT INTO %s.ledger_balances (account_id, period, debit_total, credit_total)
VALUES ($1,$2,$3,$4)
ON CONFLICT (account_id, period) DO UPDATE
SET debit_total = %[1]s.ledger_balances.debit_total + EXCLUDED.debit_total,
    credit_total = %[1]s.ledger_balances.credit_total + EXCLUDED.credit_total,
    updated_at = NOW()`, tn.Schema())
	_, err := r.tx.Exec(ctx, q, delta.AccountID, delta.Period, toNumeric(delta.Debit), toNumeric(delta.Credit))
	return err
}

func (r *txRepository) GetQueueForUpdate(ctx context.Context, tn tenant.Tenant, queueID int64) (PostingQueueEntry, error) {
	q := fmt.Sprintf(`SELECT id, entry_id, status, last_error, created_at, updated_at FROM %s.posting_queue WHERE id=$1 FOR UPDATE`, tn.Schema())
	var item PostingQueueEntry
	err := r.tx.QueryRow(ctx, q, queueID).Scan(&item.ID, &item.EntryID, &item.Status, &item.LastError, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PostingQueueEntry{}, fmt.Errorf("%w: queue entry %d", ErrNotFound, queueID)
		}
		return PostingQueueEntry{}, err
	}
	return item, nil
}

func (r *txRepository) UpdateQueueByEntry(ctx context.Context, tn tenant.Tenant, entryID int64, status QueueStatus, lastError *string) error {
	q := fmt.Sprintf(`UPDATE %s.posting_queue SET status=$2, last_error=$3, updated_at=NOW() WHERE entry_id=$1`, tn.Schema())
	cmd, err := r.tx.Exec(ctx, q, entryID, status, lastError)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: queue row for entry %d", ErrNotFound, entryID)
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q querier, tn tenant.Tenant, entryID int64) ([]JournalEntryLine, error) {
	sql := fmt.Sprintf(`SELECT id, entry_id, account_id, debit, credit, memo, related_table, related_id, created_at
FROM %s.journal_entry_lines WHERE entry_id=$1 ORDER BY id ASC`, tn.Schema())
	rows, err := q.Query(ctx, sql, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []JournalEntryLine
	for rows.Next() {
		var line JournalEntryLine
		var related *string
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.Debit, &line.Credit, &line.Memo, &related, &line.RelatedID, &line.CreatedAt); err != nil {
			return nil, err
		}
		if related != nil {
			line.RelatedTable = *related
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// Helpers

func nullString(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}

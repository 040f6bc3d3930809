package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/meridian-erp/meridian-ledger/internal/audit"
	"github.com/meridian-erp/meridian-ledger/internal/observability"
	"github.com/meridian-erp/meridian-ledger/internal/tenant"
)

// Service implements the posting engine: entry creation, posting,
// reversal and queue retry. Every mutation runs inside one repository
// transaction; state checks happen under row locks in that same
// transaction so concurrent attempts serialize instead of corrupting
// balances.
type Service struct {
	repo    Repository
	audit   audit.Recorder
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewService wires the posting engine.
func NewService(repo Repository, rec audit.Recorder, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: rec, metrics: metrics, logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ListEntries returns recent journal entries, newest first.
func (s *Service) ListEntries(ctx context.Context, tn tenant.Tenant, limit int) ([]JournalEntry, error) {
	return s.repo.ListEntries(ctx, tn, limit)
}

// GetEntry returns one entry with its lines.
func (s *Service) GetEntry(ctx context.Context, tn tenant.Tenant, entryID int64) (JournalEntry, error) {
	return s.repo.GetEntry(ctx, tn, entryID)
}

// ListQueue returns posting queue rows, optionally filtered by status.
func (s *Service) ListQueue(ctx context.Context, tn tenant.Tenant, status QueueStatus, limit int) ([]PostingQueueEntry, error) {
	return s.repo.ListQueue(ctx, tn, status, limit)
}

// GetBalance returns the aggregate for one account in one period.
func (s *Service) GetBalance(ctx context.Context, tn tenant.Tenant, accountID int64, period string) (LedgerBalance, error) {
	return s.repo.GetBalance(ctx, tn, accountID, period)
}

// CreateEntry validates and persists a journal entry in status pending
// together with its lines and one posting queue row. Nothing is
// persisted if validation fails. This is the only path that may insert
// lines; the balance invariant is enforced here and nowhere else.
func (s *Service) CreateEntry(ctx context.Context, tn tenant.Tenant, in CreateEntryInput) (JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		created, err := s.createEntryTx(ctx, tn, tx, in)
		if err != nil {
			return err
		}
		entry = created
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.metrics.EntryCreated(tn.String(), string(in.SourceType))
	s.record(ctx, tn, audit.Log{
		ActorID:  in.CreatedBy,
		Action:   "journal.create",
		Entity:   "journal_entry",
		EntityID: fmt.Sprintf("%d", entry.ID),
		Meta:     map[string]any{"source_type": string(in.SourceType)},
		At:       s.now(),
	})
	return entry, nil
}

// PostEntry transitions a pending entry to posted and applies its
// per-account deltas to the period balances. Errors are not retried
// here; the posting queue retry path decides whether to re-invoke.
func (s *Service) PostEntry(ctx context.Context, tn tenant.Tenant, entryID int64) (JournalEntry, error) {
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		posted, err := s.postEntryTx(ctx, tn, tx, entryID)
		if err != nil {
			return err
		}
		entry = posted
		return nil
	})
	if err != nil {
		s.flagQueueFailure(ctx, tn, entryID, err)
		return JournalEntry{}, err
	}
	s.metrics.EntryPosted(tn.String())
	s.record(ctx, tn, audit.Log{
		Action:   "journal.post",
		Entity:   "journal_entry",
		EntityID: fmt.Sprintf("%d", entry.ID),
		At:       s.now(),
	})
	return entry, nil
}

// ReverseEntry creates a correcting entry with every line's debit and
// credit swapped, posts it, and marks the original as reversed. The
// ledger is never edited in place; the correction is a new, fully
// auditable entry traceable to the same source records.
func (s *Service) ReverseEntry(ctx context.Context, tn tenant.Tenant, in ReverseInput) (JournalEntry, error) {
	if in.EntryID == 0 {
		return JournalEntry{}, fmt.Errorf("%w: entry id required", ErrValidation)
	}
	var reversal JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetEntryForUpdate(ctx, tn, in.EntryID)
		if err != nil {
			return err
		}
		if original.Status != EntryStatusPosted {
			return fmt.Errorf("%w: cannot reverse entry %d in status %s", ErrInvalidState, original.ID, original.Status)
		}
		lines, err := tx.GetLines(ctx, tn, original.ID)
		if err != nil {
			return err
		}
		correcting := CreateEntryInput{
			CompanyID:   original.CompanyID,
			ProjectID:   original.ProjectID,
			Date:        original.Date,
			Description: reversalMemo(in.Memo, original.ID),
			SourceType:  SourceReversal,
			ReversalOf:  &original.ID,
			CreatedBy:   in.ActorID,
			Lines:       swapLines(lines),
		}
		if err := correcting.Validate(); err != nil {
			return err
		}
		created, err := s.createEntryTx(ctx, tn, tx, correcting)
		if err != nil {
			return err
		}
		posted, err := s.postEntryTx(ctx, tn, tx, created.ID)
		if err != nil {
			return err
		}
		if err := tx.UpdateEntryStatus(ctx, tn, original.ID, EntryStatusReversed); err != nil {
			return err
		}
		reversal = posted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.metrics.EntryReversed(tn.String())
	s.record(ctx, tn, audit.Log{
		ActorID:  in.ActorID,
		Action:   "journal.reverse",
		Entity:   "journal_entry",
		EntityID: fmt.Sprintf("%d", in.EntryID),
		Meta:     map[string]any{"reversal_id": reversal.ID},
		At:       s.now(),
	})
	return reversal, nil
}

// RetryQueueEntry re-invokes the posting processor for a failed queue
// row. Pending or already posted rows are rejected to avoid duplicate
// posting.
func (s *Service) RetryQueueEntry(ctx context.Context, tn tenant.Tenant, queueID int64) (PostingQueueEntry, error) {
	var item PostingQueueEntry
	var entryID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetQueueForUpdate(ctx, tn, queueID)
		if err != nil {
			return err
		}
		if current.Status != QueueStatusFailed {
			return fmt.Errorf("%w: can only retry failed entries", ErrValidation)
		}
		entryID = current.EntryID
		if _, err := s.postEntryTx(ctx, tn, tx, current.EntryID); err != nil {
			return err
		}
		item = current
		item.Status = QueueStatusPosted
		item.LastError = nil
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrValidation) && !errors.Is(err, ErrInvalidState) {
			s.metrics.QueueRetry(tn.String(), "failed")
			if entryID != 0 {
				s.flagQueueFailure(ctx, tn, entryID, err)
			}
		}
		return PostingQueueEntry{}, err
	}
	s.metrics.QueueRetry(tn.String(), "posted")
	s.record(ctx, tn, audit.Log{
		Action:   "queue.retry",
		Entity:   "posting_queue",
		EntityID: fmt.Sprintf("%d", item.ID),
		Meta:     map[string]any{"entry_id": item.EntryID},
		At:       s.now(),
	})
	return item, nil
}

// createEntryTx inserts header, lines and queue row inside the caller's
// transaction. Input must already be validated.
func (s *Service) createEntryTx(ctx context.Context, tn tenant.Tenant, tx TxRepository, in CreateEntryInput) (JournalEntry, error) {
	entry, err := tx.InsertEntry(ctx, tn, in)
	if err != nil {
		return JournalEntry{}, err
	}
	if err := tx.InsertLines(ctx, tn, entry.ID, in.Lines); err != nil {
		return JournalEntry{}, err
	}
	if _, err := tx.InsertQueueEntry(ctx, tn, entry.ID); err != nil {
		return JournalEntry{}, err
	}
	if in.SourceRef != nil {
		if err := tx.LinkSource(ctx, tn, in.SourceType, *in.SourceRef, entry.ID); err != nil {
			return JournalEntry{}, err
		}
	}
	entry.Lines = toEntryLines(entry.ID, in.Lines, s.now())
	return entry, nil
}

// postEntryTx performs the check-then-act posting under the row lock
// taken by GetEntryForUpdate. At most one concurrent post can succeed;
// a loser observes ErrInvalidState.
func (s *Service) postEntryTx(ctx context.Context, tn tenant.Tenant, tx TxRepository, entryID int64) (JournalEntry, error) {
	entry, err := tx.GetEntryForUpdate(ctx, tn, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	if entry.Status != EntryStatusPending {
		return JournalEntry{}, fmt.Errorf("%w: cannot post entry %d in status %s", ErrInvalidState, entry.ID, entry.Status)
	}
	lines, err := tx.GetLines(ctx, tn, entry.ID)
	if err != nil {
		return JournalEntry{}, err
	}
	for _, delta := range groupDeltas(lines, entry.Period()) {
		if err := tx.UpsertBalance(ctx, tn, delta); err != nil {
			return JournalEntry{}, err
		}
	}
	if err := tx.UpdateEntryStatus(ctx, tn, entry.ID, EntryStatusPosted); err != nil {
		return JournalEntry{}, err
	}
	if err := tx.UpdateQueueByEntry(ctx, tn, entry.ID, QueueStatusPosted, nil); err != nil {
		return JournalEntry{}, err
	}
	entry.Status = EntryStatusPosted
	entry.Lines = lines
	return entry, nil
}

// flagQueueFailure records a storage failure on the queue row after the
// unit of work rolled back. Lifecycle rejections are not failures.
func (s *Service) flagQueueFailure(ctx context.Context, tn tenant.Tenant, entryID int64, cause error) {
	if errors.Is(cause, ErrNotFound) || errors.Is(cause, ErrInvalidState) || errors.Is(cause, ErrValidation) {
		return
	}
	if err := s.repo.MarkQueueFailed(ctx, tn, entryID, cause.Error()); err != nil {
		s.logger.Error("mark queue failed", slog.Int64("entry_id", entryID), slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, tn tenant.Tenant, log audit.Log) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, tn, log); err != nil {
		s.logger.Warn("audit record", slog.String("action", log.Action), slog.Any("error", err))
	}
}

// groupDeltas sums lines per account, ordered by account id so
// concurrent transactions lock balance rows in a stable order.
func groupDeltas(lines []JournalEntryLine, period string) []BalanceDelta {
	byAccount := make(map[int64]*BalanceDelta)
	for _, line := range lines {
		delta, ok := byAccount[line.AccountID]
		if !ok {
			delta = &BalanceDelta{AccountID: line.AccountID, Period: period}
			byAccount[line.AccountID] = delta
		}
		delta.Debit += line.Debit
		delta.Credit += line.Credit
	}
	out := make([]BalanceDelta, 0, len(byAccount))
	for _, delta := range byAccount {
		out = append(out, *delta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}

// swapLines turns every debit into an equal credit and vice versa,
// preserving account, memo and related references.
func swapLines(lines []JournalEntryLine) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountID:    line.AccountID,
			Debit:        line.Credit,
			Credit:       line.Debit,
			Memo:         line.Memo,
			RelatedTable: line.RelatedTable,
			RelatedID:    line.RelatedID,
		})
	}
	return out
}

func toEntryLines(entryID int64, lines []LineInput, ts time.Time) []JournalEntryLine {
	out := make([]JournalEntryLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, JournalEntryLine{
			EntryID:      entryID,
			AccountID:    line.AccountID,
			Debit:        line.Debit,
			Credit:       line.Credit,
			Memo:         line.Memo,
			RelatedTable: line.RelatedTable,
			RelatedID:    line.RelatedID,
			CreatedAt:    ts,
		})
	}
	return out
}

func reversalMemo(memo string, entryID int64) string {
	if memo != "" {
		return memo
	}
	return fmt.Sprintf("Reversal of entry %d", entryID)
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-ledger/internal/ledger"
	"github.com/meridian-erp/meridian-ledger/internal/tenant"
)

// PostingService abstracts the engine operations the worker invokes.
type PostingService interface {
	PostEntry(ctx context.Context, tn tenant.Tenant, entryID int64) (ledger.JournalEntry, error)
}

// NewPostEntryHandler processes TaskTypePostEntry tasks. Posting is
// idempotent under the engine's check-then-act guard, so redelivery of
// the same task is harmless: the loser observes an invalid state and
// the task completes without touching balances.
func NewPostEntryHandler(svc PostingService, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload PostEntryPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		tn, err := tenant.Parse(payload.Tenant)
		if err != nil {
			logger.Error("post entry task: bad tenant", slog.String("tenant", payload.Tenant))
			return asynq.SkipRetry
		}
		if _, err := svc.PostEntry(ctx, tn, payload.EntryID); err != nil {
			if errors.Is(err, ledger.ErrInvalidState) || errors.Is(err, ledger.ErrNotFound) {
				logger.Info("post entry task: nothing to do",
					slog.String("tenant", payload.Tenant),
					slog.Int64("entry_id", payload.EntryID),
					slog.Any("reason", err))
				return nil
			}
			return err
		}
		logger.Info("posted entry",
			slog.String("tenant", payload.Tenant),
			slog.Int64("entry_id", payload.EntryID))
		return nil
	}
}

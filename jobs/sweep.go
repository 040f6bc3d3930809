package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-ledger/internal/ledger"
	"github.com/meridian-erp/meridian-ledger/internal/tenant"
)

const sweepBatchSize = 500

// QueueLister reads posting queue rows for the sweep.
type QueueLister interface {
	ListQueue(ctx context.Context, tn tenant.Tenant, status ledger.QueueStatus, limit int) ([]ledger.PostingQueueEntry, error)
}

// Enqueuer submits tasks; satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NewQueueSweepHandler pulls pending posting queue rows for every
// configured tenant and enqueues one post task per entry. Task ids
// deduplicate against rows already in flight; double-processing is
// additionally guarded by the engine's transactional state check.
func NewQueueSweepHandler(lister QueueLister, client Enqueuer, tenants []string, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		for _, raw := range tenants {
			tn, err := tenant.Parse(raw)
			if err != nil {
				logger.Error("queue sweep: bad tenant", slog.String("tenant", raw))
				continue
			}
			rows, err := lister.ListQueue(ctx, tn, ledger.QueueStatusPending, sweepBatchSize)
			if err != nil {
				return err
			}
			for _, row := range rows {
				task, opts, err := NewPostEntryTask(PostEntryPayload{Tenant: raw, EntryID: row.EntryID})
				if err != nil {
					return err
				}
				if _, err := client.EnqueueContext(ctx, task, opts...); err != nil {
					if errors.Is(err, asynq.ErrTaskIDConflict) {
						continue
					}
					return err
				}
			}
			if len(rows) > 0 {
				logger.Info("queue sweep enqueued",
					slog.String("tenant", raw),
					slog.Int("count", len(rows)))
			}
		}
		return nil
	}
}

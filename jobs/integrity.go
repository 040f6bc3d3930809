package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-ledger/internal/ledger"
	"github.com/meridian-erp/meridian-ledger/internal/tenant"
)

// IntegrityChecker compares posted lines against aggregated balances.
type IntegrityChecker interface {
	FindImbalances(ctx context.Context, tn tenant.Tenant, tolerance float64) ([]ledger.PeriodImbalance, error)
}

// NewIntegrityCheckHandler audits every tenant's ledger: the sum of
// posted lines per period must match the aggregated balances. Drift
// means a bug or manual interference and is logged loudly; the job
// never mutates anything.
func NewIntegrityCheckHandler(checker IntegrityChecker, tenants []string, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		for _, raw := range tenants {
			tn, err := tenant.Parse(raw)
			if err != nil {
				logger.Error("integrity check: bad tenant", slog.String("tenant", raw))
				continue
			}
			drift, err := checker.FindImbalances(ctx, tn, ledger.BalanceTolerance)
			if err != nil {
				return err
			}
			for _, d := range drift {
				logger.Error("ledger integrity drift",
					slog.String("tenant", raw),
					slog.String("period", d.Period),
					slog.Float64("line_debit", d.LineDebit),
					slog.Float64("line_credit", d.LineCredit),
					slog.Float64("balance_debit", d.TotalDebit),
					slog.Float64("balance_credit", d.TotalCredit))
			}
			if len(drift) == 0 {
				logger.Info("ledger integrity check clean", slog.String("tenant", raw))
			}
		}
		return nil
	}
}

package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-ledger/internal/ledger"
	"github.com/meridian-erp/meridian-ledger/internal/tenant"
)

type stubChecker struct {
	drift   map[string][]ledger.PeriodImbalance
	err     error
	tenants []string
}

func (s *stubChecker) FindImbalances(ctx context.Context, tn tenant.Tenant, tolerance float64) ([]ledger.PeriodImbalance, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.tenants = append(s.tenants, tn.String())
	return s.drift[tn.String()], nil
}

func TestIntegrityCheckVisitsEveryTenant(t *testing.T) {
	checker := &stubChecker{drift: map[string][]ledger.PeriodImbalance{
		"acme": {{Period: "2026-03", LineDebit: 100, TotalDebit: 90}},
	}}
	handler := NewIntegrityCheckHandler(checker, []string{"acme", "globe"}, slog.Default())

	err := handler(context.Background(), NewIntegrityCheckTask())
	require.NoError(t, err)
	require.Equal(t, []string{"acme", "globe"}, checker.tenants)
}

func TestIntegrityCheckPropagatesErrors(t *testing.T) {
	cause := errors.New("db down")
	handler := NewIntegrityCheckHandler(&stubChecker{err: cause}, []string{"acme"}, slog.Default())

	err := handler(context.Background(), NewIntegrityCheckTask())
	require.ErrorIs(t, err, cause)
}

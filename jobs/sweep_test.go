package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-ledger/internal/ledger"
	"github.com/meridian-erp/meridian-ledger/internal/tenant"
)

type stubLister struct {
	rows map[string][]ledger.PostingQueueEntry
	err  error
}

func (s *stubLister) ListQueue(ctx context.Context, tn tenant.Tenant, status ledger.QueueStatus, limit int) ([]ledger.PostingQueueEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows[tn.String()], nil
}

type stubEnqueuer struct {
	tasks    []*asynq.Task
	conflict bool
}

func (s *stubEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if s.conflict {
		return nil, asynq.ErrTaskIDConflict
	}
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func TestQueueSweepEnqueuesPendingRows(t *testing.T) {
	lister := &stubLister{rows: map[string][]ledger.PostingQueueEntry{
		"acme":  {{ID: 1, EntryID: 10}, {ID: 2, EntryID: 11}},
		"globe": {{ID: 5, EntryID: 50}},
	}}
	client := &stubEnqueuer{}
	handler := NewQueueSweepHandler(lister, client, []string{"acme", "globe"}, slog.Default())

	err := handler(context.Background(), NewQueueSweepTask())
	require.NoError(t, err)
	require.Len(t, client.tasks, 3)
	for _, task := range client.tasks {
		require.Equal(t, TaskTypePostEntry, task.Type())
	}
}

func TestQueueSweepToleratesTaskIDConflicts(t *testing.T) {
	lister := &stubLister{rows: map[string][]ledger.PostingQueueEntry{
		"acme": {{ID: 1, EntryID: 10}},
	}}
	client := &stubEnqueuer{conflict: true}
	handler := NewQueueSweepHandler(lister, client, []string{"acme"}, slog.Default())

	err := handler(context.Background(), NewQueueSweepTask())
	require.NoError(t, err)
	require.Empty(t, client.tasks)
}

func TestQueueSweepSkipsInvalidTenants(t *testing.T) {
	lister := &stubLister{rows: map[string][]ledger.PostingQueueEntry{
		"acme": {{ID: 1, EntryID: 10}},
	}}
	client := &stubEnqueuer{}
	handler := NewQueueSweepHandler(lister, client, []string{"Bad Tenant", "acme"}, slog.Default())

	err := handler(context.Background(), NewQueueSweepTask())
	require.NoError(t, err)
	require.Len(t, client.tasks, 1)
}

func TestQueueSweepPropagatesListErrors(t *testing.T) {
	cause := errors.New("db down")
	handler := NewQueueSweepHandler(&stubLister{err: cause}, &stubEnqueuer{}, []string{"acme"}, slog.Default())

	err := handler(context.Background(), NewQueueSweepTask())
	require.ErrorIs(t, err, cause)
}

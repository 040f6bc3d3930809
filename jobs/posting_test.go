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

type stubPoster struct {
	err    error
	calls  []int64
	tenant tenant.Tenant
}

func (s *stubPoster) PostEntry(ctx context.Context, tn tenant.Tenant, entryID int64) (ledger.JournalEntry, error) {
	s.tenant = tn
	s.calls = append(s.calls, entryID)
	if s.err != nil {
		return ledger.JournalEntry{}, s.err
	}
	return ledger.JournalEntry{ID: entryID, Status: ledger.EntryStatusPosted}, nil
}

func postTask(t *testing.T, payload PostEntryPayload) *asynq.Task {
	t.Helper()
	task, _, err := NewPostEntryTask(payload)
	require.NoError(t, err)
	return task
}

func TestPostEntryHandlerPostsEntry(t *testing.T) {
	poster := &stubPoster{}
	handler := NewPostEntryHandler(poster, slog.Default())

	err := handler(context.Background(), postTask(t, PostEntryPayload{Tenant: "acme", EntryID: 42}))
	require.NoError(t, err)
	require.Equal(t, []int64{42}, poster.calls)
	require.Equal(t, "acme", poster.tenant.String())
}

func TestPostEntryHandlerTreatsLifecycleRejectionsAsDone(t *testing.T) {
	for _, cause := range []error{ledger.ErrInvalidState, ledger.ErrNotFound} {
		poster := &stubPoster{err: cause}
		handler := NewPostEntryHandler(poster, slog.Default())

		err := handler(context.Background(), postTask(t, PostEntryPayload{Tenant: "acme", EntryID: 1}))
		require.NoError(t, err, cause)
	}
}

func TestPostEntryHandlerPropagatesOtherErrors(t *testing.T) {
	cause := errors.New("connection reset")
	poster := &stubPoster{err: cause}
	handler := NewPostEntryHandler(poster, slog.Default())

	err := handler(context.Background(), postTask(t, PostEntryPayload{Tenant: "acme", EntryID: 1}))
	require.ErrorIs(t, err, cause)
}

func TestPostEntryHandlerSkipsBadPayload(t *testing.T) {
	poster := &stubPoster{}
	handler := NewPostEntryHandler(poster, slog.Default())

	err := handler(context.Background(), asynq.NewTask(TaskTypePostEntry, []byte("not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, poster.calls)
}

func TestPostEntryHandlerSkipsBadTenant(t *testing.T) {
	poster := &stubPoster{}
	handler := NewPostEntryHandler(poster, slog.Default())

	err := handler(context.Background(), postTask(t, PostEntryPayload{Tenant: "Bad;Tenant", EntryID: 1}))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, poster.calls)
}

func TestNewPostEntryTaskDerivesStableID(t *testing.T) {
	_, opts, err := NewPostEntryTask(PostEntryPayload{Tenant: "acme", EntryID: 7})
	require.NoError(t, err)
	require.Len(t, opts, 2)
}

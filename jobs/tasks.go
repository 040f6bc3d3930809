// Package jobs contains the asynchronous posting worker tasks.
package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypePostEntry posts one pending journal entry.
	TaskTypePostEntry = "ledger:post_entry"
	// TaskTypeQueueSweep enqueues post tasks for pending queue rows.
	TaskTypeQueueSweep = "ledger:queue_sweep"
	// TaskTypeIntegrityCheck audits posted lines against balances.
	TaskTypeIntegrityCheck = "ledger:integrity_check"
)

// PostEntryPayload identifies one journal entry to post.
type PostEntryPayload struct {
	Tenant  string `json:"tenant"`
	EntryID int64  `json:"entry_id"`
}

// NewPostEntryTask constructs an Asynq task for one entry. The task id
// is derived from tenant and entry so a sweep cannot enqueue the same
// entry twice while a previous task is still in flight.
func NewPostEntryTask(payload PostEntryPayload) (*asynq.Task, []asynq.Option, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.TaskID(fmt.Sprintf("post:%s:%d", payload.Tenant, payload.EntryID)),
	}
	return asynq.NewTask(TaskTypePostEntry, data), opts, nil
}

// NewQueueSweepTask constructs the periodic sweep task.
func NewQueueSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeQueueSweep, nil)
}

// NewIntegrityCheckTask constructs the periodic integrity task.
func NewIntegrityCheckTask() *asynq.Task {
	return asynq.NewTask(TaskTypeIntegrityCheck, nil)
}

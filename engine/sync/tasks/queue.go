package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/pkg/config"
)

// Queue is the enqueue facade over the River client. Push enqueues are
// transactional: the job becomes visible only when the caller's transaction
// commits, so a rollback never leaves an orphan upstream write.
type Queue struct {
	client *river.Client[pgx.Tx]
	cfg    *config.SyncConfig
}

func NewQueue(client *river.Client[pgx.Tx], cfg *config.SyncConfig) *Queue {
	return &Queue{client: client, cfg: cfg}
}

func (q *Queue) pushOpts() *river.InsertOpts {
	return &river.InsertOpts{Queue: QueueSync, MaxAttempts: q.cfg.PushMaxAttempts}
}

func (q *Queue) PushNewTx(ctx context.Context, tx pgx.Tx, scheduleID core.ID) error {
	if tx == nil {
		return fmt.Errorf("push_new enqueue requires a transaction")
	}
	_, err := q.client.InsertTx(ctx, tx, PushNewArgs{ScheduleID: scheduleID}, q.pushOpts())
	return err
}

func (q *Queue) PushUpdateTx(
	ctx context.Context,
	tx pgx.Tx,
	scheduleID core.ID,
	newEmployeeID *string,
	newDatetime *time.Time,
) error {
	if tx == nil {
		return fmt.Errorf("push_update enqueue requires a transaction")
	}
	args := PushUpdateArgs{ScheduleID: scheduleID, NewEmployeeID: newEmployeeID, NewDatetime: newDatetime}
	_, err := q.client.InsertTx(ctx, tx, args, q.pushOpts())
	return err
}

func (q *Queue) PushDeleteTx(ctx context.Context, tx pgx.Tx, scheduleID core.ID, upstreamRef string) error {
	if tx == nil {
		return fmt.Errorf("push_delete enqueue requires a transaction")
	}
	args := PushDeleteArgs{ScheduleID: scheduleID, UpstreamRef: upstreamRef}
	_, err := q.client.InsertTx(ctx, tx, args, q.pushOpts())
	return err
}

// TriggerPull enqueues an immediate pull outside any transaction.
func (q *Queue) TriggerPull(ctx context.Context) error {
	_, err := q.client.Insert(ctx, PullEventsArgs{}, &river.InsertOpts{Queue: QueueSync, MaxAttempts: 1})
	return err
}

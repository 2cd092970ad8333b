package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/paperdesk/backoffice/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskFinancialSnapshot renders the financial report workbook for a date.
	TaskFinancialSnapshot = "ledger:financial-snapshot"
	// TaskReorderScan reports items projected below their minimum stock.
	TaskReorderScan = "inventory:reorder-scan"
)

// AsOfPayload carries the projection cutoff. An empty AsOf means the day the
// task runs.
type AsOfPayload struct {
	AsOf string `json:"as_of,omitempty"`
}

// NewFinancialSnapshotTask constructs a snapshot task.
func NewFinancialSnapshotTask(asOf string) (*asynq.Task, error) {
	return newAsOfTask(TaskFinancialSnapshot, asOf)
}

// NewReorderScanTask constructs a reorder scan task.
func NewReorderScanTask(asOf string) (*asynq.Task, error) {
	return newAsOfTask(TaskReorderScan, asOf)
}

func newAsOfTask(kind, asOf string) (*asynq.Task, error) {
	if asOf != "" {
		date, err := shared.ParseDate(asOf)
		if err != nil {
			return nil, err
		}
		asOf = date
	}
	body, err := json.Marshal(AsOfPayload{AsOf: asOf})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(kind, body, asynq.Queue(QueueDefault)), nil
}

// decodeAsOf reads the payload and resolves the cutoff. A bad payload is not
// retried.
func decodeAsOf(t *asynq.Task, now time.Time) (string, error) {
	var payload AsOfPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return "", fmt.Errorf("%s: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if payload.AsOf == "" {
		return shared.FormatDate(now), nil
	}
	date, err := shared.ParseDate(payload.AsOf)
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return date, nil
}

// JobObserver records task outcomes.
type JobObserver interface {
	ObserveJob(task string, took time.Duration, err error)
}

// tracker times one task run.
type tracker struct {
	observer JobObserver
	task     string
	start    time.Time
}

func track(observer JobObserver, task string) *tracker {
	return &tracker{observer: observer, task: task, start: time.Now()}
}

// End records the outcome and returns err untouched.
func (t *tracker) End(err error) error {
	if t.observer != nil {
		t.observer.ObserveJob(t.task, time.Since(t.start), err)
	}
	return err
}

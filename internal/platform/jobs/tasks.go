package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan asks the worker to reconcile inventory and report low/out-of-stock items.
	TaskLowStockScan = "inventory:low_stock_scan"
)

// LowStockScanPayload describes why a scan was requested.
type LowStockScanPayload struct {
	Reason    string   `json:"reason"`
	ItemNames []string `json:"item_names,omitempty"`
}

// LowStockScanTaskID identifies the scan queued for reason. While that task is pending,
// further requests for the same reason are dropped, whatever their item names.
func LowStockScanTaskID(reason string) string {
	return "low_stock_scan:" + reason
}

// NewLowStockScanTask constructs an Asynq task keyed by the payload's reason.
func NewLowStockScanTask(payload LowStockScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, data,
		asynq.Queue(QueueDefault),
		asynq.TaskID(LowStockScanTaskID(payload.Reason)),
		asynq.MaxRetry(3),
	), nil
}

// Enqueuer submits background tasks. A nil Enqueuer is valid and drops tasks.
type Enqueuer interface {
	EnqueueLowStockScan(ctx context.Context, payload LowStockScanPayload) error
}

// Client wraps an asynq client.
type Client struct {
	client *asynq.Client
}

// NewClient connects a task client to Redis.
func NewClient(redisAddr string) *Client {
	return &Client{client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})}
}

// EnqueueLowStockScan submits a scan task. A scan already queued for the same reason is not an error.
func (c *Client) EnqueueLowStockScan(ctx context.Context, payload LowStockScanPayload) error {
	task, err := NewLowStockScanTask(payload)
	if err != nil {
		return fmt.Errorf("jobs: build low stock task: %w", err)
	}
	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return fmt.Errorf("jobs: enqueue low stock task: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// LowStockScanner is implemented by the inventory service.
type LowStockScanner interface {
	LowStockScan(ctx context.Context) error
}

// HandleLowStockScan returns the task handler for TaskLowStockScan.
func HandleLowStockScan(scanner LowStockScanner) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload LowStockScanPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("jobs: decode low stock payload: %v: %w", err, asynq.SkipRetry)
		}
		return scanner.LowStockScan(ctx)
	}
}

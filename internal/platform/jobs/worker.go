package jobs

import (
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Worker wraps the Asynq server and the scheduler for periodic scans.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	log       *logrus.Logger
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisAddr    string
	Logger       *logrus.Logger
	Scanner      LowStockScanner
	ScanCronSpec string
}

// NewWorker constructs a Worker and registers the low-stock scan.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	opt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 2,
		Queues: map[string]int{
			QueueDefault: 1,
		},
		Logger: cfg.Logger,
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskLowStockScan, HandleLowStockScan(cfg.Scanner))

	var scheduler *asynq.Scheduler
	if cfg.ScanCronSpec != "" {
		scheduler = asynq.NewScheduler(opt, &asynq.SchedulerOpts{Logger: cfg.Logger})
		task, err := NewLowStockScanTask(LowStockScanPayload{Reason: "scheduled"})
		if err != nil {
			return nil, err
		}
		if _, err := scheduler.Register(cfg.ScanCronSpec, task); err != nil {
			return nil, err
		}
	}
	return &Worker{server: srv, mux: mux, scheduler: scheduler, log: cfg.Logger}, nil
}

// Run starts processing and blocks until a termination signal arrives.
func (w *Worker) Run() error {
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
		defer w.scheduler.Shutdown()
	}
	w.log.Info("worker started")
	return w.server.Run(w.mux)
}

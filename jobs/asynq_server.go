package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// NewServer builds the asynq worker with its task routing.
func NewServer(redisAddr string, handlers *Handlers, logger *slog.Logger) (*asynq.Server, *asynq.ServeMux) {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 5,
				"low":     1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed",
					slog.String("type", task.Type()),
					slog.Any("error", err))
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeExpiryScan, handlers.HandleExpiryScan)
	mux.HandleFunc(TypeLowStockScan, handlers.HandleLowStockScan)
	mux.HandleFunc(TypeLedgerSync, handlers.HandleLedgerSync)
	return server, mux
}

// NewScheduler registers the periodic tasks. Scans run each morning; ledger
// sync drains every ten minutes.
func NewScheduler(redisAddr string, logger *slog.Logger) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddr},
		&asynq.SchedulerOpts{},
	)

	entries := []struct {
		spec string
		task *asynq.Task
	}{
		{"0 7 * * *", NewExpiryScanTask()},
		{"30 7 * * *", NewLowStockScanTask()},
		{"*/10 * * * *", NewLedgerSyncTask()},
	}
	for _, e := range entries {
		id, err := scheduler.Register(e.spec, e.task, asynq.Queue("low"))
		if err != nil {
			return nil, err
		}
		logger.Info("scheduled task",
			slog.String("entry_id", id),
			slog.String("type", e.task.Type()),
			slog.String("spec", e.spec))
	}
	return scheduler, nil
}

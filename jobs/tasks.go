// Package jobs defines the asynq task types and their handlers.
package jobs

import "github.com/hibiken/asynq"

const (
	// TypeExpiryScan walks stocked batches expiring within the configured
	// window and logs alerts.
	TypeExpiryScan = "inventory:expiry_scan"
	// TypeLowStockScan walks products at or below their threshold.
	TypeLowStockScan = "inventory:lowstock_scan"
	// TypeLedgerSync pushes unsynced ledger entries to the external sync
	// endpoint and stamps synced_at.
	TypeLedgerSync = "ledger:sync"
)

// NewExpiryScanTask builds the expiry scan task.
func NewExpiryScanTask() *asynq.Task {
	return asynq.NewTask(TypeExpiryScan, nil)
}

// NewLowStockScanTask builds the low-stock scan task.
func NewLowStockScanTask() *asynq.Task {
	return asynq.NewTask(TypeLowStockScan, nil)
}

// NewLedgerSyncTask builds the ledger sync task.
func NewLedgerSyncTask() *asynq.Task {
	return asynq.NewTask(TypeLedgerSync, nil)
}

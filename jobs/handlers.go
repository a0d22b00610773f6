package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/shelfwise/shelfwise/internal/inventory"
	"github.com/shelfwise/shelfwise/internal/reports"
)

const scanLimit = 500

// Handlers holds the dependencies of the background tasks.
type Handlers struct {
	Inventory  inventory.Repository
	Reports    reports.Repository
	Logger     *slog.Logger
	ExpiryDays int
	SyncURL    string
	SyncBatch  int
	HTTPClient *http.Client
}

func (h *Handlers) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// HandleExpiryScan logs every stocked batch whose expiry falls within the
// configured window.
func (h *Handlers) HandleExpiryScan(ctx context.Context, _ *asynq.Task) error {
	days := h.ExpiryDays
	if days <= 0 {
		days = 30
	}
	batches, err := h.Inventory.ExpiringSoon(ctx, days, scanLimit)
	if err != nil {
		return fmt.Errorf("jobs: expiry scan: %w", err)
	}

	now := time.Now()
	expired := 0
	for _, b := range batches {
		if b.Expired(now) {
			expired++
		}
	}
	h.logger().Info("expiry scan finished",
		slog.Int("days", days),
		slog.Int("expiring", len(batches)),
		slog.Int("already_expired", expired))
	return nil
}

// HandleLowStockScan logs products at or below their low-stock threshold.
func (h *Handlers) HandleLowStockScan(ctx context.Context, _ *asynq.Task) error {
	rows, err := h.Reports.LowStockAcrossBusinesses(ctx, scanLimit)
	if err != nil {
		return fmt.Errorf("jobs: low-stock scan: %w", err)
	}
	for _, row := range rows {
		h.logger().Warn("product below stock threshold",
			slog.String("product_id", row.ProductID.String()),
			slog.String("sku", row.SKU),
			slog.Int64("total_stock", row.TotalStock),
			slog.Int64("min_stock", row.MinStock))
	}
	h.logger().Info("low-stock scan finished", slog.Int("products", len(rows)))
	return nil
}

type syncEntry struct {
	ID        uuid.UUID  `json:"id"`
	BatchID   uuid.UUID  `json:"batch_id"`
	Type      string     `json:"type"`
	Quantity  int64      `json:"quantity"`
	Reason    string     `json:"reason"`
	Reference string     `json:"reference,omitempty"`
	Initial   bool       `json:"is_initial"`
	CreatedAt time.Time  `json:"created_at"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
}

// HandleLedgerSync pushes unsynced ledger entries to the external endpoint
// in batches and stamps synced_at for every delivered batch. When no
// endpoint is configured the task is a no-op.
func (h *Handlers) HandleLedgerSync(ctx context.Context, _ *asynq.Task) error {
	if h.SyncURL == "" {
		return nil
	}
	batchSize := h.SyncBatch
	if batchSize <= 0 {
		batchSize = 200
	}
	client := h.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	synced := 0
	for {
		entries, err := h.Inventory.UnsyncedTransactions(ctx, batchSize)
		if err != nil {
			return fmt.Errorf("jobs: ledger sync: load: %w", err)
		}
		if len(entries) == 0 {
			break
		}

		payload := make([]syncEntry, 0, len(entries))
		ids := make([]uuid.UUID, 0, len(entries))
		for _, t := range entries {
			payload = append(payload, syncEntry{
				ID:        t.ID,
				BatchID:   t.BatchID,
				Type:      string(t.Type),
				Quantity:  t.Quantity,
				Reason:    string(t.Reason),
				Reference: t.Reference,
				Initial:   t.Initial,
				CreatedAt: t.CreatedAt,
				UserID:    t.UserID,
			})
			ids = append(ids, t.ID)
		}

		body, err := json.Marshal(map[string]any{"transactions": payload})
		if err != nil {
			return fmt.Errorf("jobs: ledger sync: marshal: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.SyncURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("jobs: ledger sync: request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("jobs: ledger sync: deliver: %w", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("jobs: ledger sync: endpoint returned %d", resp.StatusCode)
		}

		if err := h.Inventory.MarkSynced(ctx, ids, time.Now().UTC()); err != nil {
			return fmt.Errorf("jobs: ledger sync: stamp: %w", err)
		}
		synced += len(ids)
		if len(entries) < batchSize {
			break
		}
	}

	h.logger().Info("ledger sync finished", slog.Int("entries", synced))
	return nil
}

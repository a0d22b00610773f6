package jobs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise/internal/inventory"
	"github.com/shelfwise/shelfwise/internal/reports"
)

// ledgerStub implements the inventory repository for the sync handler; the
// read-side methods it does not exercise return empty results.
type ledgerStub struct {
	entries []inventory.Transaction
	marked  []uuid.UUID
}

func (s *ledgerStub) WithTx(ctx context.Context, fn func(ctx context.Context, txRepo inventory.TxRepository) error) error {
	return nil
}

func (s *ledgerStub) GetBatch(ctx context.Context, businessID, batchID uuid.UUID) (inventory.Batch, error) {
	return inventory.Batch{}, nil
}

func (s *ledgerStub) ListBatches(ctx context.Context, filter inventory.BatchFilter) ([]inventory.Batch, error) {
	return nil, nil
}

func (s *ledgerStub) ListTransactions(ctx context.Context, filter inventory.TransactionFilter) ([]inventory.Transaction, error) {
	return nil, nil
}

func (s *ledgerStub) TotalStock(ctx context.Context, businessID, productID uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *ledgerStub) BatchCount(ctx context.Context, businessID, productID uuid.UUID) (int, error) {
	return 0, nil
}

func (s *ledgerStub) StockValue(ctx context.Context, businessID, productID uuid.UUID) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (s *ledgerStub) NearestExpiry(ctx context.Context, businessID, productID uuid.UUID) (*time.Time, error) {
	return nil, nil
}

func (s *ledgerStub) UnsyncedTransactions(ctx context.Context, limit int) ([]inventory.Transaction, error) {
	out := make([]inventory.Transaction, 0, limit)
	for _, t := range s.entries {
		if t.SyncedAt == nil {
			out = append(out, t)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *ledgerStub) MarkSynced(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	marked := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		marked[id] = true
	}
	for i := range s.entries {
		if marked[s.entries[i].ID] {
			syncedAt := at
			s.entries[i].SyncedAt = &syncedAt
		}
	}
	s.marked = append(s.marked, ids...)
	return nil
}

func (s *ledgerStub) ExpiringSoon(ctx context.Context, withinDays, limit int) ([]inventory.Batch, error) {
	return nil, nil
}

type reportsStub struct {
	rows []reports.LowStockRow
}

func (s *reportsStub) StockTotals(ctx context.Context, businessID uuid.UUID, expiringDays int) (reports.StockTotals, error) {
	return reports.StockTotals{}, nil
}

func (s *reportsStub) LowStockProducts(ctx context.Context, businessID uuid.UUID) ([]reports.LowStockRow, error) {
	return nil, nil
}

func (s *reportsStub) ExpiryAlerts(ctx context.Context, businessID uuid.UUID, days int) ([]reports.ExpiryAlertRow, error) {
	return nil, nil
}

func (s *reportsStub) MovementTotals(ctx context.Context, businessID uuid.UUID, productID *uuid.UUID, from, to time.Time) (reports.MovementTotals, error) {
	return reports.MovementTotals{}, nil
}

func (s *reportsStub) LowStockAcrossBusinesses(ctx context.Context, limit int) ([]reports.LowStockRow, error) {
	return s.rows, nil
}

func unsynced(n int) []inventory.Transaction {
	entries := make([]inventory.Transaction, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, inventory.Transaction{
			ID:        uuid.New(),
			BatchID:   uuid.New(),
			Type:      inventory.TxTypeOut,
			Quantity:  1,
			Reason:    inventory.ReasonSale,
			CreatedAt: time.Now().UTC(),
		})
	}
	return entries
}

func TestLedgerSyncStampsDeliveredEntries(t *testing.T) {
	var received int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var payload struct {
			Transactions []json.RawMessage `json:"transactions"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		received += len(payload.Transactions)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	repo := &ledgerStub{entries: unsynced(5)}
	handlers := &Handlers{
		Inventory: repo,
		SyncURL:   server.URL,
		SyncBatch: 2,
	}

	require.NoError(t, handlers.HandleLedgerSync(context.Background(), NewLedgerSyncTask()))
	require.Equal(t, 5, received)
	require.Len(t, repo.marked, 5)
	for _, e := range repo.entries {
		require.NotNil(t, e.SyncedAt)
	}
}

func TestLedgerSyncStopsOnEndpointError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	repo := &ledgerStub{entries: unsynced(3)}
	handlers := &Handlers{Inventory: repo, SyncURL: server.URL, SyncBatch: 10}

	err := handlers.HandleLedgerSync(context.Background(), NewLedgerSyncTask())
	require.Error(t, err)
	require.Empty(t, repo.marked, "nothing is stamped when delivery fails")
}

func TestLedgerSyncNoEndpointIsNoop(t *testing.T) {
	repo := &ledgerStub{entries: unsynced(3)}
	handlers := &Handlers{Inventory: repo}

	require.NoError(t, handlers.HandleLedgerSync(context.Background(), NewLedgerSyncTask()))
	require.Empty(t, repo.marked)
}

func TestLowStockScanLogsRows(t *testing.T) {
	handlers := &Handlers{
		Inventory: &ledgerStub{},
		Reports: &reportsStub{rows: []reports.LowStockRow{
			{ProductID: uuid.New(), Name: "Ibuprofen", SKU: "IBU-200", MinStock: 10, TotalStock: 3},
		}},
	}
	require.NoError(t, handlers.HandleLowStockScan(context.Background(), NewLowStockScanTask()))
}

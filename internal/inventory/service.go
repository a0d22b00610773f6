package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// InvalidationPort bumps derived report caches after a committed mutation.
type InvalidationPort interface {
	Bump(ctx context.Context, businessID uuid.UUID) error
}

// MetricsPort records movement counters after commit.
type MetricsPort interface {
	RecordMovement(txType string)
	RecordAllocation(batchesAffected int)
}

// Service is the single mutation path for stock. Every quantity change goes
// through a movement transaction that appends a ledger entry and updates the
// batch inside one storage transaction.
type Service struct {
	repo       Repository
	invalidate InvalidationPort
	metrics    MetricsPort
	logger     *slog.Logger
}

// NewService wires the inventory service. invalidate and metrics may be nil.
func NewService(repo Repository, invalidate InvalidationPort, metrics MetricsPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, invalidate: invalidate, metrics: metrics, logger: logger}
}

// ApplyMovement validates and applies one movement against one batch. The
// resulting quantity must stay non-negative; otherwise nothing is written and
// ErrInsufficientStock is returned.
func (s *Service) ApplyMovement(ctx context.Context, input MovementInput) (Transaction, error) {
	if err := validateMovement(input.Type, input.Quantity, input.Reason); err != nil {
		return Transaction{}, err
	}

	reason := input.Reason
	if input.Type == TxTypeIn && reason == "" {
		reason = ReasonPurchase
	}

	entry := Transaction{
		ID:        uuid.New(),
		BatchID:   input.BatchID,
		UserID:    &input.UserID,
		Type:      input.Type,
		Quantity:  input.Quantity,
		Reason:    reason,
		Reference: input.Reference,
		Notes:     input.Notes,
		CreatedAt: time.Now().UTC(),
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, txRepo TxRepository) error {
		batch, err := txRepo.GetBatchForUpdate(ctx, input.BusinessID, input.BatchID)
		if err != nil {
			return err
		}
		next := batch.Quantity + entry.Delta()
		if next < 0 {
			return fmt.Errorf("%w: batch %s holds %d, movement needs %d",
				ErrInsufficientStock, batch.ID, batch.Quantity, -entry.Delta())
		}
		if err := txRepo.InsertTransaction(ctx, entry); err != nil {
			return err
		}
		return txRepo.UpdateBatchQuantity(ctx, batch.ID, next, entry.CreatedAt)
	})
	if err != nil {
		return Transaction{}, err
	}

	s.afterCommit(ctx, input.BusinessID, string(entry.Type))
	return entry, nil
}

// CreateBatch registers a batch with its starting quantity. The quantity is
// written directly on the batch; when it is positive a record-only IN entry
// documents the arrival without being re-applied.
func (s *Service) CreateBatch(ctx context.Context, input CreateBatchInput) (Batch, *Transaction, error) {
	if input.Quantity < 0 {
		return Batch{}, nil, fmt.Errorf("%w: initial quantity %d", ErrInvalidQuantity, input.Quantity)
	}
	if input.CostPrice.IsNegative() || input.SellPrice.IsNegative() {
		return Batch{}, nil, fmt.Errorf("%w: negative price", ErrInvalidQuantity)
	}

	now := time.Now().UTC()
	batch := Batch{
		ID:              uuid.New(),
		ProductID:       input.ProductID,
		LocationID:      input.LocationID,
		BatchNumber:     input.BatchNumber,
		ExpiryDate:      input.ExpiryDate,
		ManufactureDate: input.ManufactureDate,
		Quantity:        input.Quantity,
		CostPrice:       input.CostPrice,
		SellPrice:       input.SellPrice,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var initial *Transaction
	if input.Quantity > 0 {
		initial = &Transaction{
			ID:        uuid.New(),
			BatchID:   batch.ID,
			UserID:    &input.UserID,
			Type:      TxTypeIn,
			Quantity:  input.Quantity,
			Reason:    ReasonPurchase,
			Notes:     "Initial stock",
			Initial:   true,
			CreatedAt: now,
		}
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, txRepo TxRepository) error {
		if err := txRepo.InsertBatch(ctx, batch); err != nil {
			return err
		}
		if initial != nil {
			return txRepo.InsertTransaction(ctx, *initial)
		}
		return nil
	})
	if err != nil {
		return Batch{}, nil, err
	}

	s.afterCommit(ctx, input.BusinessID, string(TxTypeIn))
	return batch, initial, nil
}

// AllocateOutward deducts the requested quantity from the product's batches
// in FEFO order, draining each batch before touching the next. The allocation
// is all-or-nothing: when combined stock cannot cover the request, no batch
// is touched.
func (s *Service) AllocateOutward(ctx context.Context, input AllocationInput) (AllocationResult, error) {
	if input.Quantity <= 0 {
		return AllocationResult{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, input.Quantity)
	}
	if !input.Reason.Enumerated() {
		return AllocationResult{}, fmt.Errorf("%w: %q", ErrReasonRequired, input.Reason)
	}

	now := time.Now().UTC()
	var result AllocationResult

	err := s.repo.WithTx(ctx, func(ctx context.Context, txRepo TxRepository) error {
		batches, err := txRepo.ListProductBatchesForUpdate(ctx, input.BusinessID, input.ProductID)
		if err != nil {
			return err
		}

		var available int64
		for _, b := range batches {
			available += b.Quantity
		}
		if available < input.Quantity {
			return fmt.Errorf("%w: product %s holds %d, requested %d",
				ErrInsufficientStock, input.ProductID, available, input.Quantity)
		}

		for _, step := range planAllocation(batches, input.Quantity) {
			entry := Transaction{
				ID:        uuid.New(),
				BatchID:   step.Batch.ID,
				UserID:    &input.UserID,
				Type:      TxTypeOut,
				Quantity:  step.Deduct,
				Reason:    input.Reason,
				Reference: input.Reference,
				Notes:     input.Notes,
				CreatedAt: now,
			}
			if err := txRepo.InsertTransaction(ctx, entry); err != nil {
				return err
			}
			if err := txRepo.UpdateBatchQuantity(ctx, step.Batch.ID, step.Remaining, now); err != nil {
				return err
			}
			result.Transactions = append(result.Transactions, entry)
			result.TotalDeducted += step.Deduct
		}
		result.BatchesAffected = len(result.Transactions)
		return nil
	})
	if err != nil {
		return AllocationResult{}, err
	}

	s.afterCommit(ctx, input.BusinessID, string(TxTypeOut))
	if s.metrics != nil {
		s.metrics.RecordAllocation(result.BatchesAffected)
	}
	return result, nil
}

// GetBatch returns one batch within the business scope.
func (s *Service) GetBatch(ctx context.Context, businessID, batchID uuid.UUID) (Batch, error) {
	return s.repo.GetBatch(ctx, businessID, batchID)
}

// ListBatches returns batches matching the filter in FEFO order.
func (s *Service) ListBatches(ctx context.Context, filter BatchFilter) ([]Batch, error) {
	return s.repo.ListBatches(ctx, filter)
}

// ListTransactions returns ledger entries matching the filter, newest first.
func (s *Service) ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

func (s *Service) afterCommit(ctx context.Context, businessID uuid.UUID, txType string) {
	if s.metrics != nil {
		s.metrics.RecordMovement(txType)
	}
	if s.invalidate != nil {
		if err := s.invalidate.Bump(ctx, businessID); err != nil {
			s.logger.Warn("report cache bump failed",
				slog.String("business_id", businessID.String()), slog.Any("error", err))
		}
	}
}

func validateMovement(txType TxType, quantity int64, reason Reason) error {
	switch txType {
	case TxTypeIn, TxTypeOut:
		if quantity <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
		}
	case TxTypeAdjust:
		if quantity == 0 {
			return fmt.Errorf("%w: adjustment of zero", ErrInvalidQuantity)
		}
		if !reason.Enumerated() {
			return fmt.Errorf("%w: %q", ErrReasonRequired, reason)
		}
	default:
		return fmt.Errorf("%w: unknown movement type %q", ErrInvalidQuantity, txType)
	}
	return nil
}

package inventory

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shelfwise/shelfwise/internal/platform/httpx"
	"github.com/shelfwise/shelfwise/internal/shared"
)

// ScopeResolver answers whether referenced master data belongs to the
// caller's business. Implemented by the catalog and business modules; wired
// in main.
type ScopeResolver interface {
	ProductInScope(ctx context.Context, businessID, productID uuid.UUID) error
	LocationInScope(ctx context.Context, businessID, locationID uuid.UUID) error
	DefaultLocation(ctx context.Context, businessID uuid.UUID) (uuid.UUID, error)
}

// Handler exposes the inventory HTTP surface.
type Handler struct {
	service  *Service
	scope    ScopeResolver
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler constructs the inventory handler.
func NewHandler(service *Service, scope ScopeResolver, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:  service,
		scope:    scope,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// MountRoutes registers inventory routes on the router. All routes expect an
// authenticated identity in context.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/inventory", func(r chi.Router) {
		r.Post("/batches", h.createBatch)
		r.Get("/batches", h.listBatches)
		r.Get("/batches/expiring", h.listExpiringBatches)
		r.Get("/batches/{batchID}", h.getBatch)
		r.Post("/inward", h.inward)
		r.Post("/outward", h.outward)
		r.Post("/adjust", h.adjust)
		r.Post("/quick-out", h.quickOut)
		r.Get("/transactions", h.listTransactions)
	})
}

type createBatchRequest struct {
	ProductID       uuid.UUID       `json:"product_id" validate:"required"`
	LocationID      uuid.UUID       `json:"location_id"`
	BatchNumber     string          `json:"batch_number" validate:"required,max=100"`
	ExpiryDate      *string         `json:"expiry_date"`
	ManufactureDate *string         `json:"manufacture_date"`
	Quantity        int64           `json:"quantity" validate:"gte=0"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	SellPrice       decimal.Decimal `json:"sell_price"`
}

func (h *Handler) createBatch(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req createBatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	expiry, err := parseDate(req.ExpiryDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "expiry_date must be YYYY-MM-DD")
		return
	}
	manufacture, err := parseDate(req.ManufactureDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "manufacture_date must be YYYY-MM-DD")
		return
	}

	if err := h.scope.ProductInScope(r.Context(), identity.BusinessID, req.ProductID); err != nil {
		h.respondError(w, err)
		return
	}

	locationID := req.LocationID
	if locationID == uuid.Nil {
		locationID, err = h.scope.DefaultLocation(r.Context(), identity.BusinessID)
		if err != nil {
			h.respondError(w, err)
			return
		}
	} else if err := h.scope.LocationInScope(r.Context(), identity.BusinessID, locationID); err != nil {
		h.respondError(w, err)
		return
	}

	batch, initial, err := h.service.CreateBatch(r.Context(), CreateBatchInput{
		BusinessID:      identity.BusinessID,
		ProductID:       req.ProductID,
		LocationID:      locationID,
		UserID:          identity.UserID,
		BatchNumber:     req.BatchNumber,
		ExpiryDate:      expiry,
		ManufactureDate: manufacture,
		Quantity:        req.Quantity,
		CostPrice:       req.CostPrice,
		SellPrice:       req.SellPrice,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	resp := map[string]any{"batch": batchJSON(batch, time.Now())}
	if initial != nil {
		resp["initial_transaction"] = transactionJSON(*initial)
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) getBatch(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	batchID, err := uuid.Parse(chi.URLParam(r, "batchID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid batch id")
		return
	}
	batch, err := h.service.GetBatch(r.Context(), identity.BusinessID, batchID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, batchJSON(batch, time.Now()))
}

func (h *Handler) listBatches(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	filter := BatchFilter{BusinessID: identity.BusinessID}
	if raw := r.URL.Query().Get("product"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product filter")
			return
		}
		filter.ProductID = &id
	}
	if raw := r.URL.Query().Get("location"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid location filter")
			return
		}
		filter.LocationID = &id
	}
	if r.URL.Query().Get("expiring") == "true" {
		days := queryInt(r, "days", 30)
		filter.ExpiringWithinDays = &days
	}
	page := shared.NewPageRequest(queryInt(r, "page", 1), queryInt(r, "per_page", 50))
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	batches, err := h.service.ListBatches(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}

	now := time.Now()
	items := make([]map[string]any, 0, len(batches))
	for _, b := range batches {
		items = append(items, batchJSON(b, now))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"batches": items, "pagination": page})
}

func (h *Handler) listExpiringBatches(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	days := queryInt(r, "days", 30)
	filter := BatchFilter{BusinessID: identity.BusinessID, ExpiringWithinDays: &days}

	batches, err := h.service.ListBatches(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	now := time.Now()
	items := make([]map[string]any, 0, len(batches))
	for _, b := range batches {
		items = append(items, batchJSON(b, now))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"batches": items, "days": days})
}

type movementRequest struct {
	BatchID   uuid.UUID `json:"batch_id" validate:"required"`
	Quantity  int64     `json:"quantity" validate:"required"`
	Reason    string    `json:"reason" validate:"max=50"`
	Reference string    `json:"reference" validate:"max=100"`
	Notes     string    `json:"notes" validate:"max=500"`
}

func (h *Handler) inward(w http.ResponseWriter, r *http.Request) {
	h.applyMovement(w, r, TxTypeIn)
}

func (h *Handler) outward(w http.ResponseWriter, r *http.Request) {
	h.applyMovement(w, r, TxTypeOut)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	h.applyMovement(w, r, TxTypeAdjust)
}

func (h *Handler) applyMovement(w http.ResponseWriter, r *http.Request, txType TxType) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	entry, err := h.service.ApplyMovement(r.Context(), MovementInput{
		BusinessID: identity.BusinessID,
		BatchID:    req.BatchID,
		UserID:     identity.UserID,
		Type:       txType,
		Quantity:   req.Quantity,
		Reason:     Reason(req.Reason),
		Reference:  req.Reference,
		Notes:      req.Notes,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"transaction": transactionJSON(entry)})
}

type quickOutRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int64     `json:"quantity" validate:"required,gt=0"`
	Reason    string    `json:"reason" validate:"required,max=50"`
	Reference string    `json:"reference" validate:"max=100"`
	Notes     string    `json:"notes" validate:"max=500"`
}

func (h *Handler) quickOut(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req quickOutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.scope.ProductInScope(r.Context(), identity.BusinessID, req.ProductID); err != nil {
		h.respondError(w, err)
		return
	}

	result, err := h.service.AllocateOutward(r.Context(), AllocationInput{
		BusinessID: identity.BusinessID,
		ProductID:  req.ProductID,
		UserID:     identity.UserID,
		Quantity:   req.Quantity,
		Reason:     Reason(req.Reason),
		Reference:  req.Reference,
		Notes:      req.Notes,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	entries := make([]map[string]any, 0, len(result.Transactions))
	for _, t := range result.Transactions {
		entries = append(entries, transactionJSON(t))
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"transactions":     entries,
		"total_deducted":   result.TotalDeducted,
		"batches_affected": result.BatchesAffected,
	})
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	filter := TransactionFilter{BusinessID: identity.BusinessID}
	if raw := r.URL.Query().Get("batch"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid batch filter")
			return
		}
		filter.BatchID = &id
	}
	if raw := r.URL.Query().Get("product"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product filter")
			return
		}
		filter.ProductID = &id
	}
	if raw := r.URL.Query().Get("type"); raw != "" {
		t := TxType(raw)
		if !t.Valid() {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "type must be IN, OUT or ADJUST")
			return
		}
		filter.Type = &t
	}
	if raw := r.URL.Query().Get("start_date"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "start_date must be YYYY-MM-DD")
			return
		}
		filter.From = from
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "end_date must be YYYY-MM-DD")
			return
		}
		filter.To = to.AddDate(0, 0, 1)
	}
	page := shared.NewPageRequest(queryInt(r, "page", 1), queryInt(r, "per_page", 50))
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	entries, err := h.service.ListTransactions(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(entries))
	for _, t := range entries {
		items = append(items, transactionJSON(t))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": items, "pagination": page})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		httpx.Problem(w, http.StatusConflict, "Insufficient Stock", err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrReasonRequired):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrTransient):
		w.Header().Set("Retry-After", "1")
		httpx.Problem(w, http.StatusServiceUnavailable, "Temporarily Unavailable", "storage contention, retry the request")
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("inventory request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func batchJSON(b Batch, now time.Time) map[string]any {
	item := map[string]any{
		"id":           b.ID,
		"product_id":   b.ProductID,
		"location_id":  b.LocationID,
		"batch_number": b.BatchNumber,
		"quantity":     b.Quantity,
		"cost_price":   b.CostPrice,
		"sell_price":   b.SellPrice,
		"stock_value":  b.StockValue(),
		"is_expired":   b.Expired(now),
		"created_at":   b.CreatedAt,
		"updated_at":   b.UpdatedAt,
	}
	if b.ExpiryDate != nil {
		item["expiry_date"] = b.ExpiryDate.Format("2006-01-02")
		if days, ok := b.DaysUntilExpiry(now); ok {
			item["days_until_expiry"] = days
		}
	}
	if b.ManufactureDate != nil {
		item["manufacture_date"] = b.ManufactureDate.Format("2006-01-02")
	}
	return item
}

func transactionJSON(t Transaction) map[string]any {
	item := map[string]any{
		"id":         t.ID,
		"batch_id":   t.BatchID,
		"type":       t.Type,
		"quantity":   t.Quantity,
		"reason":     t.Reason,
		"reference":  t.Reference,
		"notes":      t.Notes,
		"is_initial": t.Initial,
		"created_at": t.CreatedAt,
	}
	if t.UserID != nil {
		item["user_id"] = *t.UserID
	}
	if t.SyncedAt != nil {
		item["synced_at"] = *t.SyncedAt
	}
	return item
}

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

package reports

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shelfwise/shelfwise/internal/platform/httpx"
	"github.com/shelfwise/shelfwise/internal/shared"
)

// Handler exposes the read-only reports surface.
type Handler struct {
	service *Service
}

// NewHandler constructs the reports handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/summary", h.summary)
		r.Get("/expiry-alerts", h.expiryAlerts)
		r.Get("/low-stock", h.lowStock)
		r.Get("/movements", h.movements)
	})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	summary, err := h.service.Summary(r.Context(), identity.BusinessID)
	if err != nil {
		respondReportError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) expiryAlerts(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "days must be a positive integer")
			return
		}
		days = parsed
	}
	alerts, err := h.service.ExpiryAlerts(r.Context(), identity.BusinessID, days)
	if err != nil {
		respondReportError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	products, err := h.service.LowStock(r.Context(), identity.BusinessID)
	if err != nil {
		respondReportError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) movements(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var productID *uuid.UUID
	if raw := r.URL.Query().Get("product"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product filter")
			return
		}
		productID = &id
	}
	var from, to time.Time
	if raw := r.URL.Query().Get("start_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "start_date must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "end_date must be YYYY-MM-DD")
			return
		}
		to = parsed.AddDate(0, 0, 1)
	}

	report, err := h.service.Movements(r.Context(), identity.BusinessID, productID, from, to)
	if err != nil {
		respondReportError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func respondReportError(w http.ResponseWriter, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	httpx.RespondError(w, err)
}

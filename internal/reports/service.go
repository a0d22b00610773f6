package reports

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/shelfwise/shelfwise/internal/business"
)

// Headline is the type-specific block at the top of the summary report.
type Headline struct {
	Focus   string            `json:"focus"`
	Title   string            `json:"title"`
	Figures map[string]string `json:"figures"`
}

// Summary is the full summary report payload.
type Summary struct {
	BusinessType business.Type `json:"business_type"`
	Headline     Headline      `json:"headline"`
	Totals       StockTotals   `json:"totals"`
	GeneratedAt  time.Time     `json:"generated_at"`
}

// MovementReport is the movements payload for a window.
type MovementReport struct {
	From        *time.Time     `json:"from,omitempty"`
	To          *time.Time     `json:"to,omitempty"`
	Totals      MovementTotals `json:"totals"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// BusinessSource resolves the caller's business for headline selection.
type BusinessSource interface {
	Get(ctx context.Context, businessID uuid.UUID) (business.Business, error)
}

// Service assembles the read-only reports.
type Service struct {
	repo         Repository
	businesses   BusinessSource
	cache        *Cache
	expiringDays int
	printer      *message.Printer
	logger       *slog.Logger
}

// NewService wires the reports service. cache may be nil.
func NewService(repo Repository, businesses BusinessSource, cache *Cache, expiringDays int, logger *slog.Logger) *Service {
	if expiringDays <= 0 {
		expiringDays = 30
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:         repo,
		businesses:   businesses,
		cache:        cache,
		expiringDays: expiringDays,
		printer:      message.NewPrinter(language.English),
		logger:       logger,
	}
}

// Summary builds the summary report, served from cache when fresh.
func (s *Service) Summary(ctx context.Context, businessID uuid.UUID) (Summary, error) {
	var cached Summary
	if hit, err := s.cache.Get(ctx, businessID, "summary", &cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		s.logger.Warn("report cache read failed", slog.Any("error", err))
	}

	b, err := s.businesses.Get(ctx, businessID)
	if err != nil {
		return Summary{}, err
	}
	totals, err := s.repo.StockTotals(ctx, businessID, s.expiringDays)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		BusinessType: b.Type,
		Headline:     s.headlineFor(b.Type, totals),
		Totals:       totals,
		GeneratedAt:  time.Now().UTC(),
	}
	if err := s.cache.Set(ctx, businessID, "summary", summary); err != nil {
		s.logger.Warn("report cache write failed", slog.Any("error", err))
	}
	return summary, nil
}

// headlineFor picks the type-specific headline block. Each known business
// type gets its own branch; anything else falls back to the generic block.
func (s *Service) headlineFor(kind business.Type, totals StockTotals) Headline {
	p := s.printer
	switch kind {
	case business.TypePharmacy:
		return Headline{
			Focus: "expiry",
			Title: "Expiry pressure",
			Figures: map[string]string{
				"expiring_soon": p.Sprintf("%d", totals.ExpiringSoonCount),
				"expired":       p.Sprintf("%d", totals.ExpiredCount),
				"stock_units":   p.Sprintf("%d", totals.ItemsInStock),
			},
		}
	case business.TypeRetail:
		return Headline{
			Focus: "low_stock",
			Title: "Replenishment pressure",
			Figures: map[string]string{
				"low_stock_products": p.Sprintf("%d", totals.LowStockCount),
				"active_products":    p.Sprintf("%d", totals.ActiveProducts),
			},
		}
	case business.TypeWarehouse:
		return Headline{
			Focus: "value",
			Title: "Stock value",
			Figures: map[string]string{
				"stock_value": p.Sprintf("%s", totals.StockValue.StringFixed(2)),
				"stock_units": p.Sprintf("%d", totals.ItemsInStock),
			},
		}
	case business.TypeDistributor:
		return Headline{
			Focus: "volume",
			Title: "Stock on hand",
			Figures: map[string]string{
				"stock_units":    p.Sprintf("%d", totals.ItemsInStock),
				"total_products": p.Sprintf("%d", totals.TotalProducts),
			},
		}
	default:
		return Headline{
			Focus: "general",
			Title: "Overview",
			Figures: map[string]string{
				"total_products": p.Sprintf("%d", totals.TotalProducts),
				"stock_units":    p.Sprintf("%d", totals.ItemsInStock),
				"low_stock":      p.Sprintf("%d", totals.LowStockCount),
			},
		}
	}
}

// ExpiryAlerts returns stocked batches expiring within the window, earliest
// first. Never cached: it backs operational decisions.
func (s *Service) ExpiryAlerts(ctx context.Context, businessID uuid.UUID, days int) ([]ExpiryAlertRow, error) {
	if days <= 0 {
		days = s.expiringDays
	}
	return s.repo.ExpiryAlerts(ctx, businessID, days)
}

// LowStock returns products at or below their threshold.
func (s *Service) LowStock(ctx context.Context, businessID uuid.UUID) ([]LowStockRow, error) {
	return s.repo.LowStockProducts(ctx, businessID)
}

// Movements builds the movement totals for the window, cached per window.
func (s *Service) Movements(ctx context.Context, businessID uuid.UUID, productID *uuid.UUID, from, to time.Time) (MovementReport, error) {
	name := movementsCacheName(productID, from, to)
	var cached MovementReport
	if hit, err := s.cache.Get(ctx, businessID, name, &cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		s.logger.Warn("report cache read failed", slog.Any("error", err))
	}

	totals, err := s.repo.MovementTotals(ctx, businessID, productID, from, to)
	if err != nil {
		return MovementReport{}, err
	}
	report := MovementReport{Totals: totals, GeneratedAt: time.Now().UTC()}
	if !from.IsZero() {
		report.From = &from
	}
	if !to.IsZero() {
		report.To = &to
	}
	if err := s.cache.Set(ctx, businessID, name, report); err != nil {
		s.logger.Warn("report cache write failed", slog.Any("error", err))
	}
	return report, nil
}

func movementsCacheName(productID *uuid.UUID, from, to time.Time) string {
	name := "movements"
	if productID != nil {
		name += ":" + productID.String()
	}
	if !from.IsZero() {
		name += ":" + from.Format("2006-01-02")
	}
	if !to.IsZero() {
		name += ":" + to.Format("2006-01-02")
	}
	return name
}

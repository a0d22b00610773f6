// Command seed provisions a demo tenant with products, batches and a few
// movements. Intended for local development only.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shelfwise/shelfwise/internal/app"
	"github.com/shelfwise/shelfwise/internal/auth"
	"github.com/shelfwise/shelfwise/internal/business"
	"github.com/shelfwise/shelfwise/internal/catalog"
	"github.com/shelfwise/shelfwise/internal/inventory"
	"github.com/shelfwise/shelfwise/internal/platform/db"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("failed to connect to postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	authService := auth.NewService(auth.NewPGRepository(pool))
	businessService := business.NewService(business.NewPGRepository(pool))
	catalogService := catalog.NewService(catalog.NewPGRepository(pool))
	inventoryService := inventory.NewService(inventory.NewPGRepository(pool), nil, nil, logger)

	owner, err := authService.Register(ctx, auth.RegisterInput{
		BusinessName:          "Demo Pharmacy",
		BusinessType:          "pharmacy",
		OwnerName:             "Demo Owner",
		Email:                 "demo@shelfwise.local",
		Password:              "demo-password",
		CreateDefaultLocation: true,
	})
	if err != nil {
		logger.Error("failed to register demo business", slog.Any("error", err))
		os.Exit(1)
	}

	location, err := businessService.DefaultLocation(ctx, owner.BusinessID)
	if err != nil {
		logger.Error("failed to load default location", slog.Any("error", err))
		os.Exit(1)
	}

	category, err := catalogService.CreateCategory(ctx, catalog.CreateCategoryInput{
		BusinessID: owner.BusinessID,
		Name:       "Painkillers",
	})
	if err != nil {
		logger.Error("failed to create category", slog.Any("error", err))
		os.Exit(1)
	}

	products := []catalog.CreateProductInput{
		{BusinessID: owner.BusinessID, CategoryID: &category.ID, Name: "Ibuprofen 200mg", SKU: "IBU-200", Unit: "box", MinStock: 20},
		{BusinessID: owner.BusinessID, CategoryID: &category.ID, Name: "Paracetamol 500mg", SKU: "PAR-500", Unit: "box", MinStock: 30},
		{BusinessID: owner.BusinessID, Name: "Vitamin C 1000mg", SKU: "VIT-C", Unit: "bottle", MinStock: 10},
	}

	expiries := []int{45, 120, 400}
	for i, input := range products {
		product, err := catalogService.CreateProduct(ctx, input)
		if err != nil {
			logger.Error("failed to create product", slog.Any("error", err))
			os.Exit(1)
		}
		expiry := time.Now().AddDate(0, 0, expiries[i])
		batch, _, err := inventoryService.CreateBatch(ctx, inventory.CreateBatchInput{
			BusinessID:  owner.BusinessID,
			ProductID:   product.ID,
			LocationID:  location.ID,
			UserID:      owner.ID,
			BatchNumber: "SEED-" + product.SKU,
			ExpiryDate:  &expiry,
			Quantity:    int64(50 * (i + 1)),
			CostPrice:   decimal.NewFromInt(int64(4 + i)),
			SellPrice:   decimal.NewFromInt(int64(7 + i)),
		})
		if err != nil {
			logger.Error("failed to create batch", slog.Any("error", err))
			os.Exit(1)
		}

		_, err = inventoryService.ApplyMovement(ctx, inventory.MovementInput{
			BusinessID: owner.BusinessID,
			BatchID:    batch.ID,
			UserID:     owner.ID,
			Type:       inventory.TxTypeOut,
			Quantity:   5,
			Reason:     inventory.ReasonSale,
			Reference:  "SEED-SALE",
		})
		if err != nil {
			logger.Error("failed to record movement", slog.Any("error", err))
			os.Exit(1)
		}
	}

	logger.Info("seed complete",
		slog.String("business_id", owner.BusinessID.String()),
		slog.String("login", "demo@shelfwise.local / demo-password"))
}

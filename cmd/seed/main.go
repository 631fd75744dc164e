// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"clinipos/internal/core/id"
	"clinipos/internal/core/types"
	"clinipos/internal/infrastructure/storage/postgres"
	"clinipos/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := seedItems(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed items", "error", err)
	}

	if err := seedServices(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed services", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedItems(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	log.Info("seeding demo items...")

	expiry := time.Now().AddDate(1, 6, 0)

	items := []struct {
		code         string
		name         string
		brand        string
		category     string
		costUnit     types.Money
		sellingPrice types.Money
		quantity     int64
	}{
		{"PARA-500", "Paracetamol 500mg", "Pharma Co", "Product", types.MustMoney("10"), types.MustMoney("15"), 120},
		{"AMOX-250", "Amoxicillin 250mg", "MedLab", "Product", types.MustMoney("18"), types.MustMoney("27.50"), 80},
		{"BAND-STD", "Standard Bandage", "FirstAid Ltd", "Product", types.MustMoney("2"), types.MustMoney("4"), 300},
		{"GLOV-LTX", "Latex Gloves (pair)", "SafeHands", "Service", types.MustMoney("1.20"), types.MustMoney("2"), 500},
		{"SYR-5ML", "Syringe 5ml", "MediFlow", "Service", types.MustMoney("0.80"), types.MustMoney("1.50"), 400},
		{"GAUZ-10", "Sterile Gauze 10x10", "FirstAid Ltd", "Service", types.MustMoney("1.50"), types.MustMoney("3"), 250},
	}

	for _, it := range items {
		_, err := pool.Exec(ctx, `
			INSERT INTO cat_items (
				id, code, name, brand, category, cost_unit, selling_price,
				quantity, expiry, version, deletion_mark, attributes
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, false, '{}')
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, id.New(), it.code, it.name, it.brand, it.category, it.costUnit, it.sellingPrice, it.quantity, expiry)
		if err != nil {
			log.Warnw("failed to seed item", "code", it.code, "error", err)
		}
	}

	return nil
}

func seedServices(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	log.Info("seeding demo services...")

	services := []struct {
		code  string
		name  string
		price types.Money
		bom   []struct {
			itemCode string
			qty      int64
		}
	}{
		{
			code:  "SVC-INJECT",
			name:  "Injection Administration",
			price: types.MustMoney("25"),
			bom: []struct {
				itemCode string
				qty      int64
			}{
				{"SYR-5ML", 1},
				{"GLOV-LTX", 1},
			},
		},
		{
			code:  "SVC-WOUND",
			name:  "Wound Dressing",
			price: types.MustMoney("40"),
			bom: []struct {
				itemCode string
				qty      int64
			}{
				{"GAUZ-10", 2},
				{"BAND-STD", 1},
				{"GLOV-LTX", 1},
			},
		},
		{
			code:  "SVC-CONSULT",
			name:  "General Consultation",
			price: types.MustMoney("50"),
		},
	}

	for _, svc := range services {
		svcID := id.New()
		commandTag, err := pool.Exec(ctx, `
			INSERT INTO cat_services (id, code, name, price, version, deletion_mark, attributes)
			VALUES ($1, $2, $3, $4, 1, false, '{}')
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, svcID, svc.code, svc.name, svc.price)
		if err != nil {
			log.Warnw("failed to seed service", "code", svc.code, "error", err)
			continue
		}

		// Re-running the seeder must not duplicate BOM rows.
		if commandTag.RowsAffected() == 0 {
			continue
		}

		for i, line := range svc.bom {
			_, err := pool.Exec(ctx, `
				INSERT INTO cat_service_bom (service_id, line_no, item_code, qty_per_unit)
				VALUES ($1, $2, $3, $4)
			`, svcID, i+1, line.itemCode, line.qty)
			if err != nil {
				log.Warnw("failed to seed service bom", "service", svc.code, "item", line.itemCode, "error", err)
			}
		}

		log.Infow("service seeded", "code", svc.code, "saleCode", "SERVICE-"+svcID.String())
	}

	return nil
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"coursehunter/internal/config"
	"coursehunter/internal/database"
	"coursehunter/internal/model"
	"coursehunter/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// check_store connects to the configured order store, applies the schema and
// prints a summary of orders and active cooldowns.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := zerolog.Nop()

	var (
		orders  repository.OrderRepository
		history repository.PurchaseHistoryRepository
	)

	switch cfg.Store.Driver {
	case config.StoreDriverSQLite:
		var db *sql.DB
		db, err = database.OpenSQLite(ctx, cfg.SQLite.Path, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to open sqlite database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		err = repository.MigrateSQLite(ctx, db)
		orders = repository.NewSQLiteOrderRepository(db, logger)
		history = repository.NewSQLitePurchaseHistoryRepository(db, logger)
		fmt.Printf("Connected to sqlite database: %s\n", cfg.SQLite.Path)

	default:
		var pool *pgxpool.Pool
		pool, err = database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
			os.Exit(1)
		}
		defer pool.Close()

		err = repository.MigratePostgres(ctx, pool)
		orders = repository.NewOrderRepository(pool, logger)
		history = repository.NewPurchaseHistoryRepository(pool, logger)
		fmt.Printf("Connected to postgres database: %s\n", cfg.Database.Database)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Schema migration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nOrders:")
	for _, status := range []model.OrderStatus{model.OrderStatusPending, model.OrderStatusCompleted} {
		list, err := orders.List(ctx, status)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  - %-9s %d\n", status, len(list))
	}

	entries, err := history.ListCoolingDown(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}

	now := time.Now()
	fmt.Println("\nBuyers on cooldown:")
	for _, entry := range entries {
		if entry.CooldownUntil.After(now) {
			fmt.Printf("  - %s until %s\n", entry.BuyerHandle, entry.CooldownUntil.Local().Format(time.DateTime))
		}
	}
}

// Command seed-db loads the product catalog from a JSON file and creates an
// admin employee. Intended for local development and fresh deployments.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/nmarkelov/storehouse/internal/domain/employee"
	"github.com/nmarkelov/storehouse/internal/domain/product"
	"github.com/nmarkelov/storehouse/internal/storage/postgres"
)

type productJSON struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
}

func main() {
	var (
		databaseURL   string
		productsFile  string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&adminEmail, "admin-email", "", "admin account email (or STOREHOUSE_SEED_ADMIN_EMAIL env)")
	flag.StringVar(&adminPassword, "admin-password", "", "admin account password (or STOREHOUSE_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminEmail == "" {
		adminEmail = os.Getenv("STOREHOUSE_SEED_ADMIN_EMAIL")
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("STOREHOUSE_SEED_ADMIN_PASSWORD")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, databaseURL, productsFile, adminEmail, adminPassword string) error {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return err
	}

	raw, err := os.ReadFile(productsFile)
	if err != nil {
		return err
	}
	var items []productJSON
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}

	products := postgres.NewProductRepository(pool)
	for _, item := range items {
		id, err := products.Create(ctx, &product.Product{
			Name:     item.Name,
			Category: item.Category,
			Price:    item.Price,
			Stock:    item.Stock,
			Enabled:  true,
		})
		if err != nil {
			return err
		}
		slog.Info("seeded product", "id", id, "name", item.Name)
	}

	if adminEmail != "" && adminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		employees := postgres.NewEmployeeRepository(pool)
		id, err := employees.Create(ctx, &employee.Employee{
			Name:         "Admin",
			Email:        adminEmail,
			PasswordHash: string(hash),
			Role:         employee.RoleAdmin,
		})
		if err != nil {
			return err
		}
		slog.Info("seeded admin", "id", id, "email", adminEmail)
	}

	slog.Info("done", "products", len(items))
	return nil
}

package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DemoOffice and DemoCustomers are the rows SeedDemo upserts.
var (
	DemoOffice    = struct{ Code, Name, Currency string }{"DXB", "Dubai", "AED"}
	DemoCustomers = []struct {
		Code       string
		Name       string
		CreditDays int
	}{
		{"ACME", "Acme Trading LLC", 30},
		{"OCEANLINE", "Oceanline Shipping", 45},
		{"GULFHAUL", "Gulf Haulage Co", 15},
	}
)

// SeedDemo upserts one office and a few customers so a fresh database can open jobs.
// It only touches master data and is safe to re-run.
func SeedDemo(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO offices (code, name, local_currency) VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, local_currency = EXCLUDED.local_currency`,
		DemoOffice.Code, DemoOffice.Name, DemoOffice.Currency)
	if err != nil {
		return fmt.Errorf("failed to seed office: %w", err)
	}

	for _, c := range DemoCustomers {
		_, err = tx.Exec(ctx, `
			INSERT INTO customers (code, name, credit_days) VALUES ($1, $2, $3)
			ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, credit_days = EXCLUDED.credit_days, is_active = true`,
			c.Code, c.Name, c.CreditDays)
		if err != nil {
			return fmt.Errorf("failed to seed customer %s: %w", c.Code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

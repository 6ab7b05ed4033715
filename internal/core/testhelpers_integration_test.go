package core_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"freightops/internal/core"
	"freightops/internal/db"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database; every table but reference data is truncated.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE settlements, invoice_lines, costings, invoices, shipment_cargo, shipment_containers,
			shipment_parties, shipment_status_logs, shipments, document_sequences,
			customer_opening_balances, customers, offices RESTART IDENTITY CASCADE;

		INSERT INTO offices (id, code, name, local_currency) VALUES (1, 'DXB', 'Dubai', 'AED');

		INSERT INTO customers (id, code, name, credit_days) VALUES
		(1, 'ACME', 'Acme Trading LLC', 30),
		(2, 'OCEANLINE', 'Ocean Line Shipping', 45);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}
	return pool
}

// fixture is one open import shipment with a debtor (ACME) and a creditor (OCEANLINE).
type fixture struct {
	pool      *pgxpool.Pool
	ref       core.ReferenceData
	docs      core.DocumentService
	shipments core.ShipmentService
	parties   core.PartyService
	cargo     core.CargoService
	costings  core.CostingService
	invoices  core.InvoiceService
	reports   core.ReportingService

	shipment *core.Shipment
	debtor   *core.Party
	creditor *core.Party
}

func newFixture(t *testing.T) *fixture {
	pool := setupTestDB(t)
	t.Cleanup(pool.Close)
	ctx := context.Background()

	ref, err := core.NewReferenceData(ctx, pool)
	require.NoError(t, err)
	docs := core.NewDocumentService(pool)

	f := &fixture{
		pool:      pool,
		ref:       ref,
		docs:      docs,
		shipments: core.NewShipmentService(pool, ref, docs),
		parties:   core.NewPartyService(pool),
		cargo:     core.NewCargoService(pool, ref),
		costings:  core.NewCostingService(pool, ref),
		invoices:  core.NewInvoiceService(pool, docs, zerolog.Nop()),
		reports:   core.NewReportingService(pool),
	}

	pol, pod := "CNSHA", "AEJEA"
	f.shipment, err = f.shipments.CreateShipment(ctx, 1, core.ShipmentInput{
		JobDate:   day("2026-01-10"),
		Direction: core.DirectionImport,
		Mode:      core.ModeSeaFCL,
		POLCode:   &pol,
		PODCode:   &pod,
	})
	require.NoError(t, err)

	f.debtor, err = f.parties.AddParty(ctx, f.shipment.ID, 1, core.PartyDebtor)
	require.NoError(t, err)
	f.creditor, err = f.parties.AddParty(ctx, f.shipment.ID, 2, core.PartyCreditor)
	require.NoError(t, err)
	return f
}

// addFreight adds the 10x25 USD sale / 10x15 USD cost line billed to the debtor.
func (f *fixture) addFreight(t *testing.T) *core.Costing {
	c, err := f.costings.AddCosting(context.Background(), f.shipment.ID, core.CostingInput{
		ChargeDescription: "Ocean Freight",
		BasisCode:         "CNTR",
		BillToPartyID:     &f.debtor.ID,
		VendorPartyID:     &f.creditor.ID,
		Sale:              usdSide("10", "25.00"),
		Cost:              usdSide("10", "15.00"),
	})
	require.NoError(t, err)
	return c
}

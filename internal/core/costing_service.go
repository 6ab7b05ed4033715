package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CostingService owns the costing lines of shipments.
type CostingService interface {
	AddCosting(ctx context.Context, shipmentID int, in CostingInput) (*Costing, error)
	// UpdateCosting replaces a line. Invoiced lines stay editable; the issued invoice keeps its
	// own snapshot. The party of an invoiced side cannot change.
	UpdateCosting(ctx context.Context, id int, in CostingInput) (*Costing, error)
	DeleteCosting(ctx context.Context, id int) error
	CanDeleteCosting(ctx context.Context, id int) (GuardResult, error)
	GetCosting(ctx context.Context, id int) (*Costing, error)
	ListCostings(ctx context.Context, shipmentID int) (*CostingSheet, error)
}

type costingService struct {
	pool *pgxpool.Pool
	ref  ReferenceData
}

func NewCostingService(pool *pgxpool.Pool, ref ReferenceData) CostingService {
	return &costingService{pool: pool, ref: ref}
}

const costingColumns = `id, shipment_id, charge_description, basis_code, bill_to_party_id, vendor_party_id,
	sale_qty, sale_unit, sale_currency, sale_ex_rate, sale_fcy, sale_lcy, sale_tax_pct, sale_tax_amount,
	cost_qty, cost_unit, cost_currency, cost_ex_rate, cost_fcy, cost_lcy, cost_tax_pct, cost_tax_amount,
	gp, sale_invoiced, purchase_invoiced, sale_invoice_id, purchase_invoice_id, created_at, updated_at`

func scanCosting(row rowScanner) (*Costing, error) {
	var c Costing
	err := row.Scan(&c.ID, &c.ShipmentID, &c.ChargeDescription, &c.BasisCode, &c.BillToPartyID, &c.VendorPartyID,
		&c.Sale.Qty, &c.Sale.Unit, &c.Sale.CurrencyCode, &c.Sale.ExRate, &c.Sale.FCY, &c.Sale.LCY,
		&c.Sale.TaxPct, &c.Sale.TaxAmount,
		&c.Cost.Qty, &c.Cost.Unit, &c.Cost.CurrencyCode, &c.Cost.ExRate, &c.Cost.FCY, &c.Cost.LCY,
		&c.Cost.TaxPct, &c.Cost.TaxAmount,
		&c.GP, &c.SaleInvoiced, &c.PurchaseInvoiced, &c.SaleInvoiceID, &c.PurchaseInvoiceID,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// checkInput runs field validation then reference lookups.
func (s *costingService) checkInput(in CostingInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if _, err := s.ref.Lookup(RefUnit, in.BasisCode); err != nil {
		return err
	}
	if _, err := s.ref.Lookup(RefCurrency, in.Sale.CurrencyCode); err != nil {
		return err
	}
	if _, err := s.ref.Lookup(RefCurrency, in.Cost.CurrencyCode); err != nil {
		return err
	}
	return nil
}

// checkParties verifies that referenced parties belong to the shipment.
func checkParties(ctx context.Context, q pgxQuerier, shipmentID int, in CostingInput) error {
	fields := map[string]string{}
	for name, id := range map[string]*int{"bill_to_party_id": in.BillToPartyID, "vendor_party_id": in.VendorPartyID} {
		if id == nil {
			continue
		}
		var ok bool
		err := q.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM shipment_parties WHERE id = $1 AND shipment_id = $2)",
			*id, shipmentID,
		).Scan(&ok)
		if err != nil {
			return fmt.Errorf("failed to check party: %w", err)
		}
		if !ok {
			fields[name] = fmt.Sprintf("party %d is not a party of shipment %d", *id, shipmentID)
		}
	}
	if len(fields) > 0 {
		return ValidationError("invalid costing parties", fields)
	}
	return nil
}

func (s *costingService) AddCosting(ctx context.Context, shipmentID int, in CostingInput) (*Costing, error) {
	if err := s.checkInput(in); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lock, err := lockShipment(ctx, tx, shipmentID)
	if err != nil {
		return nil, err
	}
	if lock.Status == ShipmentCancelled {
		return nil, ValidationError("shipment is cancelled", map[string]string{"shipment_id": "shipment is cancelled"})
	}
	if err := checkParties(ctx, tx, shipmentID, in); err != nil {
		return nil, err
	}

	amt := ComputeCosting(in)
	c, err := scanCosting(tx.QueryRow(ctx, `
		INSERT INTO costings (shipment_id, charge_description, basis_code, bill_to_party_id, vendor_party_id,
			sale_qty, sale_unit, sale_currency, sale_ex_rate, sale_fcy, sale_lcy, sale_tax_pct, sale_tax_amount,
			cost_qty, cost_unit, cost_currency, cost_ex_rate, cost_fcy, cost_lcy, cost_tax_pct, cost_tax_amount,
			gp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING `+costingColumns,
		shipmentID, in.ChargeDescription, in.BasisCode, in.BillToPartyID, in.VendorPartyID,
		in.Sale.Qty, in.Sale.Unit, in.Sale.CurrencyCode, in.Sale.ExRate, amt.Sale.FCY, amt.Sale.LCY,
		in.Sale.TaxPct, amt.Sale.TaxAmount,
		in.Cost.Qty, in.Cost.Unit, in.Cost.CurrencyCode, in.Cost.ExRate, amt.Cost.FCY, amt.Cost.LCY,
		in.Cost.TaxPct, amt.Cost.TaxAmount,
		amt.GP))
	if err != nil {
		return nil, fmt.Errorf("failed to insert costing: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return c, nil
}

// lockCosting locks the shipment then the costing row, in that order.
func lockCosting(ctx context.Context, pool *pgxpool.Pool, tx pgx.Tx, id int) (*Costing, error) {
	var shipmentID int
	if err := pool.QueryRow(ctx, "SELECT shipment_id FROM costings WHERE id = $1", id).Scan(&shipmentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("costing", id)
		}
		return nil, fmt.Errorf("failed to read costing: %w", err)
	}
	if _, err := lockShipment(ctx, tx, shipmentID); err != nil {
		return nil, err
	}
	c, err := scanCosting(tx.QueryRow(ctx, `SELECT `+costingColumns+` FROM costings WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("costing", id)
		}
		return nil, fmt.Errorf("failed to lock costing: %w", err)
	}
	return c, nil
}

func (s *costingService) UpdateCosting(ctx context.Context, id int, in CostingInput) (*Costing, error) {
	if err := s.checkInput(in); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cur, err := lockCosting(ctx, s.pool, tx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if cur.SaleInvoiced && !samePartyRef(cur.BillToPartyID, in.BillToPartyID) {
		fields["bill_to_party_id"] = "cannot change while the sale side is invoiced"
	}
	if cur.PurchaseInvoiced && !samePartyRef(cur.VendorPartyID, in.VendorPartyID) {
		fields["vendor_party_id"] = "cannot change while the cost side is purchase-invoiced"
	}
	if len(fields) > 0 {
		return nil, ValidationError("invoiced costing party cannot change", fields)
	}
	if err := checkParties(ctx, tx, cur.ShipmentID, in); err != nil {
		return nil, err
	}

	amt := ComputeCosting(in)
	c, err := scanCosting(tx.QueryRow(ctx, `
		UPDATE costings SET
			charge_description = $2, basis_code = $3, bill_to_party_id = $4, vendor_party_id = $5,
			sale_qty = $6, sale_unit = $7, sale_currency = $8, sale_ex_rate = $9, sale_fcy = $10,
			sale_lcy = $11, sale_tax_pct = $12, sale_tax_amount = $13,
			cost_qty = $14, cost_unit = $15, cost_currency = $16, cost_ex_rate = $17, cost_fcy = $18,
			cost_lcy = $19, cost_tax_pct = $20, cost_tax_amount = $21,
			gp = $22, updated_at = NOW()
		WHERE id = $1
		RETURNING `+costingColumns,
		id, in.ChargeDescription, in.BasisCode, in.BillToPartyID, in.VendorPartyID,
		in.Sale.Qty, in.Sale.Unit, in.Sale.CurrencyCode, in.Sale.ExRate, amt.Sale.FCY,
		amt.Sale.LCY, in.Sale.TaxPct, amt.Sale.TaxAmount,
		in.Cost.Qty, in.Cost.Unit, in.Cost.CurrencyCode, in.Cost.ExRate, amt.Cost.FCY,
		amt.Cost.LCY, in.Cost.TaxPct, amt.Cost.TaxAmount,
		amt.GP))
	if err != nil {
		return nil, fmt.Errorf("failed to update costing: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return c, nil
}

func (s *costingService) DeleteCosting(ctx context.Context, id int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cur, err := lockCosting(ctx, s.pool, tx, id)
	if err != nil {
		return err
	}
	if res := EvaluateCostingDeletion(cur.SaleInvoiced, cur.PurchaseInvoiced); !res.Allowed {
		return GuardError(CodeDependentInvoiceExists, res)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM costings WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete costing: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *costingService) CanDeleteCosting(ctx context.Context, id int) (GuardResult, error) {
	c, err := s.GetCosting(ctx, id)
	if err != nil {
		return GuardResult{}, err
	}
	return EvaluateCostingDeletion(c.SaleInvoiced, c.PurchaseInvoiced), nil
}

func (s *costingService) GetCosting(ctx context.Context, id int) (*Costing, error) {
	c, err := scanCosting(s.pool.QueryRow(ctx, `SELECT `+costingColumns+` FROM costings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("costing", id)
		}
		return nil, fmt.Errorf("failed to get costing: %w", err)
	}
	return c, nil
}

func (s *costingService) ListCostings(ctx context.Context, shipmentID int) (*CostingSheet, error) {
	if err := ensureShipment(ctx, s.pool, shipmentID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+costingColumns+`
		FROM costings WHERE shipment_id = $1 ORDER BY id`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query costings: %w", err)
	}
	defer rows.Close()

	var lines []Costing
	for rows.Next() {
		c, err := scanCosting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan costing: %w", err)
		}
		lines = append(lines, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query costings: %w", err)
	}
	return SummarizeCostings(shipmentID, lines), nil
}

// SummarizeCostings totals sale LCY, cost LCY and GP over lines.
func SummarizeCostings(shipmentID int, lines []Costing) *CostingSheet {
	sheet := &CostingSheet{
		ShipmentID:   shipmentID,
		Lines:        lines,
		TotalSaleLCY: decimal.Zero,
		TotalCostLCY: decimal.Zero,
		TotalGP:      decimal.Zero,
	}
	for _, l := range lines {
		sheet.TotalSaleLCY = sheet.TotalSaleLCY.Add(l.Sale.LCY)
		sheet.TotalCostLCY = sheet.TotalCostLCY.Add(l.Cost.LCY)
		sheet.TotalGP = sheet.TotalGP.Add(l.GP)
	}
	return sheet
}

package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// InvoiceService generates invoices and purchase invoices from costing lines and applies
// settlements against them. Every mutation holds the shipment lock, then the invoice and
// costing row locks, for its whole transaction.
type InvoiceService interface {
	GenerateInvoice(ctx context.Context, in GenerateInvoiceInput) (*Invoice, error)
	UpdateInvoice(ctx context.Context, id int, in UpdateInvoiceInput) (*Invoice, error)
	// DeleteInvoice removes an unpaid invoice and releases its costing lines.
	DeleteInvoice(ctx context.Context, id int) error
	CanDeleteInvoice(ctx context.Context, id int) (GuardResult, error)
	// CloseInvoice marks an invoice Closed. Closed suppresses status derivation from then on.
	CloseInvoice(ctx context.Context, id int) (*Invoice, error)
	GetInvoice(ctx context.Context, id int) (*Invoice, error)
	ListInvoices(ctx context.Context, shipmentID int) ([]Invoice, error)

	ApplySettlement(ctx context.Context, invoiceID int, in SettlementInput) (*Settlement, error)
	ListSettlements(ctx context.Context, invoiceID int) ([]Settlement, error)
}

type invoiceService struct {
	pool   *pgxpool.Pool
	docs   DocumentService
	logger zerolog.Logger
	now    func() time.Time
}

func NewInvoiceService(pool *pgxpool.Pool, docs DocumentService, logger zerolog.Logger) InvoiceService {
	return &invoiceService{
		pool:   pool,
		docs:   docs,
		logger: logger.With().Str("component", "invoice").Logger(),
		now:    time.Now,
	}
}

const invoiceColumns = `
	i.id, i.kind, i.office_id, i.shipment_id, s.job_number, i.party_id, i.customer_id, c.code, c.name,
	i.invoice_number, i.invoice_date, i.due_date, i.currency, i.sub_total, i.total_tax, i.amount,
	i.paid_amount, i.payment_status, i.created_at, i.updated_at`

const invoiceFrom = `
	FROM invoices i
	JOIN shipments s ON s.id = i.shipment_id
	JOIN customers c ON c.id = i.customer_id`

func (s *invoiceService) scanInvoice(row rowScanner) (*Invoice, error) {
	var inv Invoice
	var stored PaymentStatus
	err := row.Scan(&inv.ID, &inv.Kind, &inv.OfficeID, &inv.ShipmentID, &inv.JobNumber, &inv.PartyID,
		&inv.CustomerID, &inv.CustomerCode, &inv.CustomerName, &inv.InvoiceNumber, &inv.InvoiceDate,
		&inv.DueDate, &inv.Currency, &inv.SubTotal, &inv.TotalTax, &inv.Amount, &inv.PaidAmount,
		&stored, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	inv.Closed = stored == StatusClosed
	inv.BalanceAmount = inv.Amount.Sub(inv.PaidAmount)
	inv.PaymentStatus = DerivePaymentStatus(inv.Amount, inv.PaidAmount, inv.DueDate, s.now(), inv.Closed)
	return &inv, nil
}

// lockedInvoice is the header state read under FOR UPDATE.
type lockedInvoice struct {
	ID         int
	Kind       InvoiceKind
	ShipmentID int
	PartyID    int
	CustomerID int
	OfficeID   int
	Date       time.Time
	DueDate    time.Time
	Amount     decimal.Decimal
	Paid       decimal.Decimal
	Closed     bool
}

// lockInvoice takes the shipment lock then the invoice row lock.
func (s *invoiceService) lockInvoice(ctx context.Context, tx pgx.Tx, id int) (*lockedInvoice, error) {
	var shipmentID int
	if err := s.pool.QueryRow(ctx, "SELECT shipment_id FROM invoices WHERE id = $1", id).Scan(&shipmentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("invoice", id)
		}
		return nil, fmt.Errorf("failed to read invoice: %w", err)
	}
	if _, err := lockShipment(ctx, tx, shipmentID); err != nil {
		return nil, err
	}

	li := lockedInvoice{ID: id}
	var stored PaymentStatus
	err := tx.QueryRow(ctx, `
		SELECT kind, shipment_id, party_id, customer_id, office_id, invoice_date, due_date,
			amount, paid_amount, payment_status
		FROM invoices WHERE id = $1 FOR UPDATE
	`, id).Scan(&li.Kind, &li.ShipmentID, &li.PartyID, &li.CustomerID, &li.OfficeID, &li.Date,
		&li.DueDate, &li.Amount, &li.Paid, &stored)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("invoice", id)
		}
		return nil, fmt.Errorf("failed to lock invoice: %w", err)
	}
	li.Closed = stored == StatusClosed
	return &li, nil
}

// validateCostingIDs rejects empty and duplicate selections.
func validateCostingIDs(ids []int) error {
	if len(ids) == 0 {
		return ValidationError("invalid invoice", map[string]string{"costing_ids": "at least one costing line is required"})
	}
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return ValidationError("invalid invoice", map[string]string{
				"costing_ids": fmt.Sprintf("costing %d is listed more than once", id),
			})
		}
		seen[id] = true
	}
	return nil
}

// lockSelectedCostings locks the selected costing rows in id order and checks that each one
// belongs to the shipment, is assigned to the party on the kind's side and is not flagged by
// any invoice other than ownInvoiceID (0 for a new invoice).
func lockSelectedCostings(ctx context.Context, tx pgx.Tx, kind InvoiceKind, shipmentID, partyID, ownInvoiceID int, ids []int) ([]Costing, error) {
	rows, err := tx.Query(ctx, `SELECT `+costingColumns+`
		FROM costings WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock costings: %w", err)
	}
	byID := make(map[int]Costing, len(ids))
	for rows.Next() {
		c, err := scanCosting(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan costing: %w", err)
		}
		byID[c.ID] = *c
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to lock costings: %w", err)
	}

	fields := map[string]string{}
	var flagged []int
	out := make([]Costing, 0, len(ids))
	for _, id := range ids {
		key := fmt.Sprintf("costing_ids[%d]", id)
		c, ok := byID[id]
		if !ok {
			fields[key] = "costing not found"
			continue
		}
		if c.ShipmentID != shipmentID {
			fields[key] = "costing belongs to another shipment"
			continue
		}
		_, party, invoiced, invoiceID := kind.costingSide(c)
		if party == nil || *party != partyID {
			fields[key] = "costing is not assigned to this party"
			continue
		}
		if invoiced && (ownInvoiceID == 0 || invoiceID == nil || *invoiceID != ownInvoiceID) {
			flagged = append(flagged, id)
			continue
		}
		out = append(out, c)
	}
	if len(fields) > 0 {
		return nil, ValidationError("invalid costing selection", fields)
	}
	if len(flagged) > 0 {
		return nil, ConflictError(fmt.Sprintf("costing lines %v were invoiced concurrently; reload and retry", flagged))
	}
	return out, nil
}

// resolvePartyCustomer returns the customer behind a party of the shipment.
func resolvePartyCustomer(ctx context.Context, tx pgx.Tx, shipmentID, partyID int) (customerID, creditDays int, err error) {
	err = tx.QueryRow(ctx, `
		SELECT c.id, c.credit_days
		FROM shipment_parties p JOIN customers c ON c.id = p.customer_id
		WHERE p.id = $1 AND p.shipment_id = $2
	`, partyID, shipmentID).Scan(&customerID, &creditDays)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ValidationError("invalid invoice", map[string]string{
				"party_id": fmt.Sprintf("party %d is not a party of shipment %d", partyID, shipmentID),
			})
		}
		return 0, 0, fmt.Errorf("failed to resolve party: %w", err)
	}
	return customerID, creditDays, nil
}

func insertInvoiceLines(ctx context.Context, tx pgx.Tx, invoiceID int, lines []InvoiceLine) error {
	for _, l := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO invoice_lines (invoice_id, costing_id, line_no, charge_description, basis_code,
				currency_code, rate, qty, roe, tax_pct, tax_amount, amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, invoiceID, l.CostingID, l.LineNo, l.ChargeDescription, l.BasisCode, l.CurrencyCode,
			l.Rate, l.Qty, l.ROE, l.TaxPct, l.TaxAmount, l.Amount)
		if err != nil {
			return fmt.Errorf("failed to insert invoice line %d: %w", l.LineNo, err)
		}
	}
	return nil
}

// setFlags flips the kind's flag on ids from false to true. Every row must change.
func (s *invoiceService) setFlags(ctx context.Context, tx pgx.Tx, kind InvoiceKind, invoiceID int, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	side := kind.side()
	tag, err := tx.Exec(ctx, fmt.Sprintf(`
		UPDATE costings SET %[1]s = true, %[2]s = $1, updated_at = NOW()
		WHERE id = ANY($2) AND %[1]s = false
	`, side.flagColumn, side.invoiceIDColumn), invoiceID, ids)
	if err != nil {
		return fmt.Errorf("failed to flag costings: %w", err)
	}
	if int(tag.RowsAffected()) != len(ids) {
		return s.integrityViolation(invoiceID, ids, tag.RowsAffected(), "flag")
	}
	return nil
}

// releaseFlags clears the kind's flag on ids that point at invoiceID. Every row must change.
func (s *invoiceService) releaseFlags(ctx context.Context, tx pgx.Tx, kind InvoiceKind, invoiceID int, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	side := kind.side()
	tag, err := tx.Exec(ctx, fmt.Sprintf(`
		UPDATE costings SET %[1]s = false, %[2]s = NULL, updated_at = NOW()
		WHERE id = ANY($2) AND %[1]s = true AND %[2]s = $1
	`, side.flagColumn, side.invoiceIDColumn), invoiceID, ids)
	if err != nil {
		return fmt.Errorf("failed to release costings: %w", err)
	}
	if int(tag.RowsAffected()) != len(ids) {
		return s.integrityViolation(invoiceID, ids, tag.RowsAffected(), "release")
	}
	return nil
}

func (s *invoiceService) integrityViolation(invoiceID int, ids []int, affected int64, op string) error {
	s.logger.Error().
		Int("invoice_id", invoiceID).
		Ints("costing_ids", ids).
		Int64("rows_affected", affected).
		Str("op", op).
		Msg("costing flag update did not match the locked line set; rolling back")
	return IntegrityError("invoice could not be saved consistently",
		fmt.Errorf("%s flags for invoice %d: expected %d rows, updated %d", op, invoiceID, len(ids), affected))
}

func costingIDs(costings []Costing) []int {
	ids := make([]int, len(costings))
	for i, c := range costings {
		ids[i] = c.ID
	}
	return ids
}

func (s *invoiceService) GenerateInvoice(ctx context.Context, in GenerateInvoiceInput) (*Invoice, error) {
	if !in.Kind.IsValid() {
		return nil, ValidationError("invalid invoice", map[string]string{"kind": "must be Invoice or PurchaseInvoice"})
	}
	if in.InvoiceDate.IsZero() {
		return nil, ValidationError("invalid invoice", map[string]string{"invoice_date": "is required"})
	}
	if err := validateCostingIDs(in.CostingIDs); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ship, err := lockShipment(ctx, tx, in.ShipmentID)
	if err != nil {
		return nil, err
	}
	if ship.Status == ShipmentCancelled {
		return nil, ValidationError("shipment is cancelled", map[string]string{"shipment_id": "shipment is cancelled"})
	}

	customerID, creditDays, err := resolvePartyCustomer(ctx, tx, in.ShipmentID, in.PartyID)
	if err != nil {
		return nil, err
	}

	selected, err := lockSelectedCostings(ctx, tx, in.Kind, in.ShipmentID, in.PartyID, 0, in.CostingIDs)
	if err != nil {
		return nil, err
	}
	lines, totals := BuildInvoiceLines(in.Kind, selected)
	if err := totals.Validate(); err != nil {
		return nil, err
	}

	dueDate := in.InvoiceDate.AddDate(0, 0, creditDays)
	if in.DueDate != nil {
		dueDate = *in.DueDate
	}
	if dueDate.Before(in.InvoiceDate) {
		return nil, ValidationError("invalid invoice", map[string]string{"due_date": "must not be before invoice_date"})
	}

	var currency string
	if err := tx.QueryRow(ctx, "SELECT local_currency FROM offices WHERE id = $1", ship.OfficeID).Scan(&currency); err != nil {
		return nil, fmt.Errorf("failed to read office currency: %w", err)
	}

	side := in.Kind.side()
	number, err := s.docs.NextNumberTx(ctx, tx, ship.OfficeID, side.numberPrefix, in.InvoiceDate)
	if err != nil {
		return nil, err
	}

	var invoiceID int
	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (kind, office_id, shipment_id, party_id, customer_id, invoice_number,
			invoice_date, due_date, currency, sub_total, total_tax, amount, paid_amount, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, $13)
		RETURNING id
	`, in.Kind, ship.OfficeID, in.ShipmentID, in.PartyID, customerID, number, in.InvoiceDate,
		dueDate, currency, totals.SubTotal, totals.TotalTax, totals.Amount,
		BasePaymentStatus(totals.Amount, decimal.Zero, false)).Scan(&invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}

	if err := insertInvoiceLines(ctx, tx, invoiceID, lines); err != nil {
		return nil, err
	}
	if err := s.setFlags(ctx, tx, in.Kind, invoiceID, costingIDs(selected)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info().Int("invoice_id", invoiceID).Str("number", number).Str("kind", string(in.Kind)).
		Int("lines", len(lines)).Msg("invoice generated")
	return s.GetInvoice(ctx, invoiceID)
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, id int, in UpdateInvoiceInput) (*Invoice, error) {
	if err := validateCostingIDs(in.CostingIDs); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cur, err := s.lockInvoice(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if cur.Closed {
		return nil, ValidationError("invoice is closed", map[string]string{"invoice_id": "closed invoices cannot be edited"})
	}

	_, creditDays, err := resolvePartyCustomer(ctx, tx, cur.ShipmentID, cur.PartyID)
	if err != nil {
		return nil, err
	}

	side := cur.Kind.side()
	current, err := lockInvoicedCostingIDs(ctx, tx, cur.Kind, id)
	if err != nil {
		return nil, err
	}

	selected, err := lockSelectedCostings(ctx, tx, cur.Kind, cur.ShipmentID, cur.PartyID, id, in.CostingIDs)
	if err != nil {
		return nil, err
	}
	lines, totals := BuildInvoiceLines(cur.Kind, selected)
	if err := totals.Validate(); err != nil {
		return nil, err
	}
	if totals.Amount.LessThan(cur.Paid) {
		return nil, ValidationError("invalid invoice", map[string]string{
			"costing_ids": fmt.Sprintf("new amount %s is below the settled amount %s",
				totals.Amount.StringFixed(2), cur.Paid.StringFixed(2)),
		})
	}

	added, removed := diffIDs(current, costingIDs(selected))

	invoiceDate := cur.Date
	dueDate := cur.DueDate
	if in.InvoiceDate != nil {
		invoiceDate = *in.InvoiceDate
		dueDate = invoiceDate.AddDate(0, 0, creditDays)
	}
	if in.DueDate != nil {
		dueDate = *in.DueDate
	}
	if dueDate.Before(invoiceDate) {
		return nil, ValidationError("invalid invoice", map[string]string{"due_date": "must not be before invoice_date"})
	}

	if err := s.releaseFlags(ctx, tx, cur.Kind, id, removed); err != nil {
		return nil, err
	}
	if err := s.setFlags(ctx, tx, cur.Kind, id, added); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, "DELETE FROM invoice_lines WHERE invoice_id = $1", id); err != nil {
		return nil, fmt.Errorf("failed to clear invoice lines: %w", err)
	}
	if err := insertInvoiceLines(ctx, tx, id, lines); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE invoices
		SET invoice_date = $2, due_date = $3, sub_total = $4, total_tax = $5, amount = $6,
			payment_status = $7, updated_at = NOW()
		WHERE id = $1
	`, id, invoiceDate, dueDate, totals.SubTotal, totals.TotalTax, totals.Amount,
		BasePaymentStatus(totals.Amount, cur.Paid, false))
	if err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info().Int("invoice_id", id).Str("kind", string(cur.Kind)).
		Int("added", len(added)).Int("removed", len(removed)).Str("flag", side.flagColumn).
		Msg("invoice updated")
	return s.GetInvoice(ctx, id)
}

// lockInvoicedCostingIDs locks and returns the costing ids currently flagged by the invoice.
func lockInvoicedCostingIDs(ctx context.Context, tx pgx.Tx, kind InvoiceKind, invoiceID int) ([]int, error) {
	rows, err := tx.Query(ctx, fmt.Sprintf(
		"SELECT id FROM costings WHERE %s = $1 ORDER BY id FOR UPDATE", kind.side().invoiceIDColumn,
	), invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock invoiced costings: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan costing id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// diffIDs returns ids present only in next (added) and only in current (removed), sorted.
func diffIDs(current, next []int) (added, removed []int) {
	cur := make(map[int]bool, len(current))
	for _, id := range current {
		cur[id] = true
	}
	nxt := make(map[int]bool, len(next))
	for _, id := range next {
		nxt[id] = true
		if !cur[id] {
			added = append(added, id)
		}
	}
	for _, id := range current {
		if !nxt[id] {
			removed = append(removed, id)
		}
	}
	sort.Ints(added)
	sort.Ints(removed)
	return added, removed
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, id int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cur, err := s.lockInvoice(ctx, tx, id)
	if err != nil {
		return err
	}
	if res := EvaluateInvoiceDeletion(cur.Paid); !res.Allowed {
		return GuardError(CodeInvoiceHasPayments, res)
	}

	flagged, err := lockInvoicedCostingIDs(ctx, tx, cur.Kind, id)
	if err != nil {
		return err
	}
	var lineCount int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM invoice_lines WHERE invoice_id = $1", id).Scan(&lineCount); err != nil {
		return fmt.Errorf("failed to count invoice lines: %w", err)
	}
	if lineCount != len(flagged) {
		return s.integrityViolation(id, flagged, int64(lineCount), "delete")
	}
	if err := s.releaseFlags(ctx, tx, cur.Kind, id, flagged); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, "DELETE FROM invoices WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info().Int("invoice_id", id).Int("released", len(flagged)).Msg("invoice deleted")
	return nil
}

func (s *invoiceService) CanDeleteInvoice(ctx context.Context, id int) (GuardResult, error) {
	var paid decimal.Decimal
	if err := s.pool.QueryRow(ctx, "SELECT paid_amount FROM invoices WHERE id = $1", id).Scan(&paid); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return GuardResult{}, NotFoundError("invoice", id)
		}
		return GuardResult{}, fmt.Errorf("failed to read invoice: %w", err)
	}
	return EvaluateInvoiceDeletion(paid), nil
}

func (s *invoiceService) CloseInvoice(ctx context.Context, id int) (*Invoice, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cur, err := s.lockInvoice(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !cur.Closed {
		if _, err := tx.Exec(ctx,
			"UPDATE invoices SET payment_status = $2, updated_at = NOW() WHERE id = $1", id, StatusClosed,
		); err != nil {
			return nil, fmt.Errorf("failed to close invoice: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s.GetInvoice(ctx, id)
}

func (s *invoiceService) GetInvoice(ctx context.Context, id int) (*Invoice, error) {
	inv, err := s.scanInvoice(s.pool.QueryRow(ctx, `SELECT `+invoiceColumns+invoiceFrom+` WHERE i.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("invoice", id)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, invoice_id, costing_id, line_no, charge_description, basis_code, currency_code,
			rate, qty, roe, tax_pct, tax_amount, amount
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY line_no
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.CostingID, &l.LineNo, &l.ChargeDescription,
			&l.BasisCode, &l.CurrencyCode, &l.Rate, &l.Qty, &l.ROE, &l.TaxPct, &l.TaxAmount, &l.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan invoice line: %w", err)
		}
		inv.Lines = append(inv.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query invoice lines: %w", err)
	}
	return inv, nil
}

// ListInvoices returns headers only; use GetInvoice for lines.
func (s *invoiceService) ListInvoices(ctx context.Context, shipmentID int) ([]Invoice, error) {
	if err := ensureShipment(ctx, s.pool, shipmentID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+invoiceColumns+invoiceFrom+`
		WHERE i.shipment_id = $1 ORDER BY i.kind, i.invoice_date, i.id`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := s.scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// ── Settlements ──────────────────────────────────────────────────────────────

func (s *invoiceService) ApplySettlement(ctx context.Context, invoiceID int, in SettlementInput) (*Settlement, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cur, err := s.lockInvoice(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := ValidateSettlement(in, cur.Amount, cur.Paid, cur.Closed); err != nil {
		return nil, err
	}

	side := cur.Kind.side()
	number, err := s.docs.NextNumberTx(ctx, tx, cur.OfficeID, side.settlePrefix, in.Date)
	if err != nil {
		return nil, err
	}

	var st Settlement
	err = tx.QueryRow(ctx, `
		INSERT INTO settlements (invoice_id, customer_id, kind, number, settlement_date, amount, reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, invoice_id, customer_id, kind, number, settlement_date, amount, reference, created_at
	`, invoiceID, cur.CustomerID, side.settlement, number, in.Date, in.Amount, in.Reference).Scan(
		&st.ID, &st.InvoiceID, &st.CustomerID, &st.Kind, &st.Number, &st.Date, &st.Amount,
		&st.Reference, &st.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert settlement: %w", err)
	}

	paid := cur.Paid.Add(in.Amount)
	if _, err := tx.Exec(ctx, `
		UPDATE invoices SET paid_amount = $2, payment_status = $3, updated_at = NOW() WHERE id = $1
	`, invoiceID, paid, BasePaymentStatus(cur.Amount, paid, false)); err != nil {
		return nil, fmt.Errorf("failed to update invoice paid amount: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info().Int("invoice_id", invoiceID).Str("number", number).
		Str("amount", in.Amount.StringFixed(2)).Msg("settlement applied")
	return &st, nil
}

func (s *invoiceService) ListSettlements(ctx context.Context, invoiceID int) ([]Settlement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, invoice_id, customer_id, kind, number, settlement_date, amount, reference, created_at
		FROM settlements WHERE invoice_id = $1 ORDER BY settlement_date, id
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements: %w", err)
	}
	defer rows.Close()

	var out []Settlement
	for rows.Next() {
		var st Settlement
		if err := rows.Scan(&st.ID, &st.InvoiceID, &st.CustomerID, &st.Kind, &st.Number, &st.Date,
			&st.Amount, &st.Reference, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

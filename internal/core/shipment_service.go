package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ShipmentService manages shipment headers, their status lifecycle and the status log.
type ShipmentService interface {
	CreateShipment(ctx context.Context, officeID int, in ShipmentInput) (*Shipment, error)
	GetShipment(ctx context.Context, id int) (*Shipment, error)
	ListShipments(ctx context.Context, officeID int, status *ShipmentStatus) ([]Shipment, error)
	// UpdateShipment replaces the editable fields. The job number is never touched.
	UpdateShipment(ctx context.Context, id int, in ShipmentInput) (*Shipment, error)
	// SetShipmentStatus applies a lifecycle transition and appends a status log entry.
	SetShipmentStatus(ctx context.Context, id int, to ShipmentStatus, remarks string) (*Shipment, error)

	GetOfficeByCode(ctx context.Context, code string) (*Office, error)

	AddStatusLog(ctx context.Context, shipmentID int, eventTime time.Time, description string, remarks *string) (*StatusLog, error)
	ListStatusLogs(ctx context.Context, shipmentID int) ([]StatusLog, error)
	DeleteStatusLog(ctx context.Context, id int) error
}

type shipmentService struct {
	pool *pgxpool.Pool
	ref  ReferenceData
	docs DocumentService
}

func NewShipmentService(pool *pgxpool.Pool, ref ReferenceData, docs DocumentService) ShipmentService {
	return &shipmentService{pool: pool, ref: ref, docs: docs}
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// shipmentLock is the subset of the shipment row read under FOR UPDATE.
type shipmentLock struct {
	ID       int
	OfficeID int
	Status   ShipmentStatus
}

// lockShipment takes the per-shipment row lock that serialises costing and invoice
// mutations of one job. Every mutation path locks the shipment before any costing row.
func lockShipment(ctx context.Context, tx pgx.Tx, shipmentID int) (shipmentLock, error) {
	l := shipmentLock{ID: shipmentID}
	err := tx.QueryRow(ctx,
		"SELECT office_id, status FROM shipments WHERE id = $1 FOR UPDATE", shipmentID,
	).Scan(&l.OfficeID, &l.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return l, NotFoundError("shipment", shipmentID)
		}
		return l, fmt.Errorf("failed to lock shipment %d: %w", shipmentID, err)
	}
	return l, nil
}

const shipmentColumns = `
	s.id, s.office_id, o.code, s.job_number, s.job_date, s.status, s.direction, s.mode,
	s.pol_code, s.pod_code, s.incoterm_code, s.mbl_number, s.hbl_number, s.remarks,
	s.created_at, s.updated_at`

func scanShipment(row rowScanner) (*Shipment, error) {
	var sh Shipment
	err := row.Scan(&sh.ID, &sh.OfficeID, &sh.OfficeCode, &sh.JobNumber, &sh.JobDate, &sh.Status,
		&sh.Direction, &sh.Mode, &sh.POLCode, &sh.PODCode, &sh.IncotermCode, &sh.MBLNumber,
		&sh.HBLNumber, &sh.Remarks, &sh.CreatedAt, &sh.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

func (s *shipmentService) checkReferences(in ShipmentInput) error {
	if err := lookupOptional(s.ref, RefPort, in.POLCode); err != nil {
		return err
	}
	if err := lookupOptional(s.ref, RefPort, in.PODCode); err != nil {
		return err
	}
	return lookupOptional(s.ref, RefIncoterm, in.IncotermCode)
}

func (s *shipmentService) CreateShipment(ctx context.Context, officeID int, in ShipmentInput) (*Shipment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkReferences(in); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	jobNumber, err := s.docs.NextNumberTx(ctx, tx, officeID, PrefixJob, in.JobDate)
	if err != nil {
		return nil, err
	}

	var id int
	err = tx.QueryRow(ctx, `
		INSERT INTO shipments (office_id, job_number, job_date, direction, mode,
			pol_code, pod_code, incoterm_code, mbl_number, hbl_number, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, officeID, jobNumber, in.JobDate, in.Direction, in.Mode, in.POLCode, in.PODCode,
		in.IncotermCode, in.MBLNumber, in.HBLNumber, in.Remarks).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create shipment: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO shipment_status_logs (shipment_id, event_time, description)
		VALUES ($1, NOW(), $2)
	`, id, "Job opened "+jobNumber); err != nil {
		return nil, fmt.Errorf("failed to write status log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s.GetShipment(ctx, id)
}

func (s *shipmentService) GetShipment(ctx context.Context, id int) (*Shipment, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+shipmentColumns+`
		FROM shipments s JOIN offices o ON o.id = s.office_id
		WHERE s.id = $1`, id)
	sh, err := scanShipment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("shipment", id)
		}
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}
	return sh, nil
}

func (s *shipmentService) ListShipments(ctx context.Context, officeID int, status *ShipmentStatus) ([]Shipment, error) {
	query := `SELECT ` + shipmentColumns + `
		FROM shipments s JOIN offices o ON o.id = s.office_id
		WHERE s.office_id = $1`
	args := []any{officeID}
	if status != nil {
		query += " AND s.status = $2"
		args = append(args, *status)
	}
	query += " ORDER BY s.job_date DESC, s.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shipments: %w", err)
	}
	defer rows.Close()

	var out []Shipment
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shipment: %w", err)
		}
		out = append(out, *sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query shipments: %w", err)
	}
	return out, nil
}

func (s *shipmentService) UpdateShipment(ctx context.Context, id int, in ShipmentInput) (*Shipment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkReferences(in); err != nil {
		return nil, err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE shipments
		SET job_date = $2, direction = $3, mode = $4, pol_code = $5, pod_code = $6,
			incoterm_code = $7, mbl_number = $8, hbl_number = $9, remarks = $10, updated_at = NOW()
		WHERE id = $1
	`, id, in.JobDate, in.Direction, in.Mode, in.POLCode, in.PODCode, in.IncotermCode,
		in.MBLNumber, in.HBLNumber, in.Remarks)
	if err != nil {
		return nil, fmt.Errorf("failed to update shipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, NotFoundError("shipment", id)
	}
	return s.GetShipment(ctx, id)
}

func (s *shipmentService) SetShipmentStatus(ctx context.Context, id int, to ShipmentStatus, remarks string) (*Shipment, error) {
	if !to.IsValid() {
		return nil, ValidationError("invalid status", map[string]string{
			"status": "must be one of Opened, Closed, Cancelled",
		})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lock, err := lockShipment(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !lock.Status.CanTransition(to) {
		return nil, ValidationError(
			fmt.Sprintf("shipment cannot move from %s to %s", lock.Status, to),
			map[string]string{"status": "invalid transition"},
		)
	}

	if to == ShipmentCancelled {
		var invoiced int
		err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM costings
			WHERE shipment_id = $1 AND (sale_invoiced OR purchase_invoiced)
		`, id).Scan(&invoiced)
		if err != nil {
			return nil, fmt.Errorf("failed to count invoiced costings: %w", err)
		}
		if invoiced > 0 {
			return nil, GuardError(CodeDependentInvoiceExists, deny(fmt.Sprintf(
				"shipment has %d invoiced costing line(s); delete the invoices before cancelling", invoiced)))
		}
	}

	if _, err := tx.Exec(ctx,
		"UPDATE shipments SET status = $2, updated_at = NOW() WHERE id = $1", id, to,
	); err != nil {
		return nil, fmt.Errorf("failed to update shipment status: %w", err)
	}

	desc := fmt.Sprintf("Status changed from %s to %s", lock.Status, to)
	var rem *string
	if r := strings.TrimSpace(remarks); r != "" {
		rem = &r
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO shipment_status_logs (shipment_id, event_time, description, remarks)
		VALUES ($1, NOW(), $2, $3)
	`, id, desc, rem); err != nil {
		return nil, fmt.Errorf("failed to write status log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s.GetShipment(ctx, id)
}

func (s *shipmentService) GetOfficeByCode(ctx context.Context, code string) (*Office, error) {
	var o Office
	err := s.pool.QueryRow(ctx,
		"SELECT id, code, name, local_currency FROM offices WHERE code = $1", code,
	).Scan(&o.ID, &o.Code, &o.Name, &o.LocalCurrency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &Error{Kind: KindNotFound, Code: CodeNotFound, Message: fmt.Sprintf("office %s not found", code)}
		}
		return nil, fmt.Errorf("failed to get office: %w", err)
	}
	return &o, nil
}

// ── Status log ───────────────────────────────────────────────────────────────

func (s *shipmentService) AddStatusLog(ctx context.Context, shipmentID int, eventTime time.Time, description string, remarks *string) (*StatusLog, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ValidationError("invalid status log", map[string]string{"description": "is required"})
	}
	if eventTime.IsZero() {
		eventTime = time.Now()
	}

	if err := ensureShipment(ctx, s.pool, shipmentID); err != nil {
		return nil, err
	}

	var l StatusLog
	err := s.pool.QueryRow(ctx, `
		INSERT INTO shipment_status_logs (shipment_id, event_time, description, remarks)
		VALUES ($1, $2, $3, $4)
		RETURNING id, shipment_id, event_time, description, remarks, created_at
	`, shipmentID, eventTime, description, remarks).Scan(
		&l.ID, &l.ShipmentID, &l.EventTime, &l.Description, &l.Remarks, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add status log: %w", err)
	}
	return &l, nil
}

func (s *shipmentService) ListStatusLogs(ctx context.Context, shipmentID int) ([]StatusLog, error) {
	if err := ensureShipment(ctx, s.pool, shipmentID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, shipment_id, event_time, description, remarks, created_at
		FROM shipment_status_logs
		WHERE shipment_id = $1
		ORDER BY event_time, id
	`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status logs: %w", err)
	}
	defer rows.Close()

	var out []StatusLog
	for rows.Next() {
		var l StatusLog
		if err := rows.Scan(&l.ID, &l.ShipmentID, &l.EventTime, &l.Description, &l.Remarks, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *shipmentService) DeleteStatusLog(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM shipment_status_logs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete status log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError("status log", id)
	}
	return nil
}

// ensureShipment returns a not-found error when the shipment does not exist.
func ensureShipment(ctx context.Context, q pgxQuerier, id int) error {
	var exists bool
	if err := q.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM shipments WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check shipment: %w", err)
	}
	if !exists {
		return NotFoundError("shipment", id)
	}
	return nil
}

package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PartyService maintains the parties of a shipment.
type PartyService interface {
	AddParty(ctx context.Context, shipmentID, customerID int, category PartyCategory) (*Party, error)
	GetParty(ctx context.Context, id int) (*Party, error)
	ListParties(ctx context.Context, shipmentID int) ([]Party, error)
	// DeleteParty removes a party no costing refers to.
	DeleteParty(ctx context.Context, id int) error
	CanDeleteParty(ctx context.Context, id int) (GuardResult, error)

	GetCustomer(ctx context.Context, id int) (*Customer, error)
	GetCustomerByCode(ctx context.Context, code string) (*Customer, error)
}

type partyService struct {
	pool *pgxpool.Pool
}

func NewPartyService(pool *pgxpool.Pool) PartyService {
	return &partyService{pool: pool}
}

const partyColumns = `p.id, p.shipment_id, p.customer_id, c.code, c.name, p.category, p.created_at`

func scanParty(row rowScanner) (*Party, error) {
	var p Party
	if err := row.Scan(&p.ID, &p.ShipmentID, &p.CustomerID, &p.CustomerCode, &p.CustomerName,
		&p.Category, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *partyService) AddParty(ctx context.Context, shipmentID, customerID int, category PartyCategory) (*Party, error) {
	if !category.IsValid() {
		return nil, ValidationError("invalid party", map[string]string{
			"category": "must be one of Shipper, Consignee, Notify, Debtor, Creditor, Neutral, Agent",
		})
	}
	if err := ensureShipment(ctx, s.pool, shipmentID); err != nil {
		return nil, err
	}
	cust, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !cust.IsActive {
		return nil, ValidationError("invalid party", map[string]string{
			"customer_id": fmt.Sprintf("customer %s is inactive", cust.Code),
		})
	}

	var id int
	err = s.pool.QueryRow(ctx, `
		INSERT INTO shipment_parties (shipment_id, customer_id, category)
		VALUES ($1, $2, $3)
		ON CONFLICT (shipment_id, customer_id, category) DO NOTHING
		RETURNING id
	`, shipmentID, customerID, category).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &Error{
				Kind:    KindConflict,
				Code:    CodeDuplicateParty,
				Message: fmt.Sprintf("customer %s is already a %s on this shipment", cust.Code, category),
			}
		}
		return nil, fmt.Errorf("failed to add party: %w", err)
	}
	return s.GetParty(ctx, id)
}

func (s *partyService) GetParty(ctx context.Context, id int) (*Party, error) {
	p, err := scanParty(s.pool.QueryRow(ctx, `SELECT `+partyColumns+`
		FROM shipment_parties p JOIN customers c ON c.id = p.customer_id
		WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("party", id)
		}
		return nil, fmt.Errorf("failed to get party: %w", err)
	}
	return p, nil
}

func (s *partyService) ListParties(ctx context.Context, shipmentID int) ([]Party, error) {
	if err := ensureShipment(ctx, s.pool, shipmentID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+partyColumns+`
		FROM shipment_parties p JOIN customers c ON c.id = p.customer_id
		WHERE p.shipment_id = $1
		ORDER BY p.category, c.code`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query parties: %w", err)
	}
	defer rows.Close()

	var out []Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan party: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// countPartyDependents counts costings that bill to or are vended by the party.
func countPartyDependents(ctx context.Context, q pgxQuerier, partyID int) (int, error) {
	var n int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM costings
		WHERE bill_to_party_id = $1 OR vendor_party_id = $1
	`, partyID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count dependent costings: %w", err)
	}
	return n, nil
}

func (s *partyService) CanDeleteParty(ctx context.Context, id int) (GuardResult, error) {
	if _, err := s.GetParty(ctx, id); err != nil {
		return GuardResult{}, err
	}
	n, err := countPartyDependents(ctx, s.pool, id)
	if err != nil {
		return GuardResult{}, err
	}
	return EvaluatePartyDeletion(n), nil
}

func (s *partyService) DeleteParty(ctx context.Context, id int) error {
	p, err := s.GetParty(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Costing writers hold the same shipment lock, so the count below cannot go stale.
	if _, err := lockShipment(ctx, tx, p.ShipmentID); err != nil {
		return err
	}

	n, err := countPartyDependents(ctx, tx, id)
	if err != nil {
		return err
	}
	if res := EvaluatePartyDeletion(n); !res.Allowed {
		return GuardError(CodeDependentCostingExists, res)
	}

	tag, err := tx.Exec(ctx, "DELETE FROM shipment_parties WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete party: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError("party", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ── Customers ────────────────────────────────────────────────────────────────

func (s *partyService) GetCustomer(ctx context.Context, id int) (*Customer, error) {
	var c Customer
	err := s.pool.QueryRow(ctx,
		"SELECT id, code, name, credit_days, is_active FROM customers WHERE id = $1", id,
	).Scan(&c.ID, &c.Code, &c.Name, &c.CreditDays, &c.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("customer", id)
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &c, nil
}

func (s *partyService) GetCustomerByCode(ctx context.Context, code string) (*Customer, error) {
	var c Customer
	err := s.pool.QueryRow(ctx,
		"SELECT id, code, name, credit_days, is_active FROM customers WHERE code = $1", code,
	).Scan(&c.ID, &c.Code, &c.Name, &c.CreditDays, &c.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &Error{Kind: KindNotFound, Code: CodeNotFound, Message: fmt.Sprintf("customer %s not found", code)}
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &c, nil
}

package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CargoService maintains the containers and cargo lines of a shipment. These records carry
// no financial dependents, so deletion is unconditional.
type CargoService interface {
	AddContainer(ctx context.Context, shipmentID int, in ContainerInput) (*Container, error)
	UpdateContainer(ctx context.Context, id int, in ContainerInput) (*Container, error)
	DeleteContainer(ctx context.Context, id int) error
	ListContainers(ctx context.Context, shipmentID int) ([]Container, error)

	AddCargo(ctx context.Context, shipmentID int, in CargoInput) (*Cargo, error)
	UpdateCargo(ctx context.Context, id int, in CargoInput) (*Cargo, error)
	DeleteCargo(ctx context.Context, id int) error
	ListCargo(ctx context.Context, shipmentID int) ([]Cargo, error)
}

type cargoService struct {
	pool *pgxpool.Pool
	ref  ReferenceData
}

func NewCargoService(pool *pgxpool.Pool, ref ReferenceData) CargoService {
	return &cargoService{pool: pool, ref: ref}
}

const containerColumns = `id, shipment_id, container_no, container_type_code, seal_no,
	gross_weight, net_weight, volume_cbm, package_count`

func scanContainer(row rowScanner) (*Container, error) {
	var c Container
	if err := row.Scan(&c.ID, &c.ShipmentID, &c.ContainerNo, &c.ContainerTypeCode, &c.SealNo,
		&c.GrossWeight, &c.NetWeight, &c.VolumeCBM, &c.PackageCount); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *cargoService) AddContainer(ctx context.Context, shipmentID int, in ContainerInput) (*Container, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.ref.Lookup(RefContainerType, in.ContainerTypeCode); err != nil {
		return nil, err
	}
	if err := ensureShipment(ctx, s.pool, shipmentID); err != nil {
		return nil, err
	}

	c, err := scanContainer(s.pool.QueryRow(ctx, `
		INSERT INTO shipment_containers (shipment_id, container_no, container_type_code, seal_no,
			gross_weight, net_weight, volume_cbm, package_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+containerColumns,
		shipmentID, in.ContainerNo, in.ContainerTypeCode, in.SealNo,
		in.GrossWeight, in.NetWeight, in.VolumeCBM, in.PackageCount))
	if err != nil {
		return nil, fmt.Errorf("failed to add container: %w", err)
	}
	return c, nil
}

func (s *cargoService) UpdateContainer(ctx context.Context, id int, in ContainerInput) (*Container, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.ref.Lookup(RefContainerType, in.ContainerTypeCode); err != nil {
		return nil, err
	}

	c, err := scanContainer(s.pool.QueryRow(ctx, `
		UPDATE shipment_containers
		SET container_no = $2, container_type_code = $3, seal_no = $4,
			gross_weight = $5, net_weight = $6, volume_cbm = $7, package_count = $8
		WHERE id = $1
		RETURNING `+containerColumns,
		id, in.ContainerNo, in.ContainerTypeCode, in.SealNo,
		in.GrossWeight, in.NetWeight, in.VolumeCBM, in.PackageCount))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("container", id)
		}
		return nil, fmt.Errorf("failed to update container: %w", err)
	}
	return c, nil
}

func (s *cargoService) DeleteContainer(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM shipment_containers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete container: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError("container", id)
	}
	return nil
}

func (s *cargoService) ListContainers(ctx context.Context, shipmentID int) ([]Container, error) {
	if err := ensureShipment(ctx, s.pool, shipmentID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+containerColumns+`
		FROM shipment_containers WHERE shipment_id = $1 ORDER BY id`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query containers: %w", err)
	}
	defer rows.Close()

	var out []Container
	for rows.Next() {
		c, err := scanContainer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan container: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// ── Cargo ────────────────────────────────────────────────────────────────────

const cargoColumns = `id, shipment_id, description, hs_code, package_type_code, package_count,
	gross_weight, volume_cbm, marks`

func scanCargo(row rowScanner) (*Cargo, error) {
	var c Cargo
	if err := row.Scan(&c.ID, &c.ShipmentID, &c.Description, &c.HSCode, &c.PackageTypeCode,
		&c.PackageCount, &c.GrossWeight, &c.VolumeCBM, &c.Marks); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *cargoService) AddCargo(ctx context.Context, shipmentID int, in CargoInput) (*Cargo, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.ref.Lookup(RefPackageType, in.PackageTypeCode); err != nil {
		return nil, err
	}
	if err := ensureShipment(ctx, s.pool, shipmentID); err != nil {
		return nil, err
	}

	c, err := scanCargo(s.pool.QueryRow(ctx, `
		INSERT INTO shipment_cargo (shipment_id, description, hs_code, package_type_code,
			package_count, gross_weight, volume_cbm, marks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+cargoColumns,
		shipmentID, in.Description, in.HSCode, in.PackageTypeCode,
		in.PackageCount, in.GrossWeight, in.VolumeCBM, in.Marks))
	if err != nil {
		return nil, fmt.Errorf("failed to add cargo: %w", err)
	}
	return c, nil
}

func (s *cargoService) UpdateCargo(ctx context.Context, id int, in CargoInput) (*Cargo, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.ref.Lookup(RefPackageType, in.PackageTypeCode); err != nil {
		return nil, err
	}

	c, err := scanCargo(s.pool.QueryRow(ctx, `
		UPDATE shipment_cargo
		SET description = $2, hs_code = $3, package_type_code = $4, package_count = $5,
			gross_weight = $6, volume_cbm = $7, marks = $8
		WHERE id = $1
		RETURNING `+cargoColumns,
		id, in.Description, in.HSCode, in.PackageTypeCode,
		in.PackageCount, in.GrossWeight, in.VolumeCBM, in.Marks))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("cargo", id)
		}
		return nil, fmt.Errorf("failed to update cargo: %w", err)
	}
	return c, nil
}

func (s *cargoService) DeleteCargo(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM shipment_cargo WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete cargo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError("cargo", id)
	}
	return nil
}

func (s *cargoService) ListCargo(ctx context.Context, shipmentID int) ([]Cargo, error) {
	if err := ensureShipment(ctx, s.pool, shipmentID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+cargoColumns+`
		FROM shipment_cargo WHERE shipment_id = $1 ORDER BY id`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cargo: %w", err)
	}
	defer rows.Close()

	var out []Cargo
	for rows.Next() {
		c, err := scanCargo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cargo: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

package app

import (
	"context"

	"freightops/internal/core"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It validates requests, resolves codes to ids and delegates to core services.
// Implementations contain no display logic of any kind.
type ApplicationService interface {
	// Health pings the database and reports the applied schema version.
	Health(ctx context.Context) (*HealthResult, error)

	// ListReference returns one reference list ordered by code.
	ListReference(ctx context.Context, kind string) (*ReferenceListResult, error)
	// RefreshReference reloads every reference list from storage.
	RefreshReference(ctx context.Context) (*ReferenceRefreshResult, error)

	// Shipments
	CreateShipment(ctx context.Context, req CreateShipmentRequest) (*core.Shipment, error)
	GetShipment(ctx context.Context, id int) (*core.Shipment, error)
	ListShipments(ctx context.Context, req ListShipmentsRequest) (*ShipmentListResult, error)
	UpdateShipment(ctx context.Context, id int, req UpdateShipmentRequest) (*core.Shipment, error)
	SetShipmentStatus(ctx context.Context, id int, req SetShipmentStatusRequest) (*core.Shipment, error)
	AddStatusLog(ctx context.Context, shipmentID int, req AddStatusLogRequest) (*core.StatusLog, error)
	ListStatusLogs(ctx context.Context, shipmentID int) ([]core.StatusLog, error)
	DeleteStatusLog(ctx context.Context, id int) error

	// Parties
	AddParty(ctx context.Context, shipmentID int, req AddPartyRequest) (*core.Party, error)
	ListParties(ctx context.Context, shipmentID int) ([]core.Party, error)
	DeleteParty(ctx context.Context, id int) error
	CanDeleteParty(ctx context.Context, id int) (core.GuardResult, error)

	// Containers and cargo
	AddContainer(ctx context.Context, shipmentID int, req ContainerRequest) (*core.Container, error)
	UpdateContainer(ctx context.Context, id int, req ContainerRequest) (*core.Container, error)
	DeleteContainer(ctx context.Context, id int) error
	ListContainers(ctx context.Context, shipmentID int) ([]core.Container, error)
	AddCargo(ctx context.Context, shipmentID int, req CargoRequest) (*core.Cargo, error)
	UpdateCargo(ctx context.Context, id int, req CargoRequest) (*core.Cargo, error)
	DeleteCargo(ctx context.Context, id int) error
	ListCargo(ctx context.Context, shipmentID int) ([]core.Cargo, error)

	// Costing
	AddCosting(ctx context.Context, shipmentID int, req CostingRequest) (*core.Costing, error)
	UpdateCosting(ctx context.Context, id int, req CostingRequest) (*core.Costing, error)
	DeleteCosting(ctx context.Context, id int) error
	CanDeleteCosting(ctx context.Context, id int) (core.GuardResult, error)
	GetCosting(ctx context.Context, id int) (*core.Costing, error)
	ListCostings(ctx context.Context, shipmentID int) (*core.CostingSheet, error)

	// Invoices and settlements
	GenerateInvoice(ctx context.Context, shipmentID int, req GenerateInvoiceRequest) (*InvoiceResult, error)
	UpdateInvoice(ctx context.Context, id int, req UpdateInvoiceRequest) (*InvoiceResult, error)
	DeleteInvoice(ctx context.Context, id int) error
	CanDeleteInvoice(ctx context.Context, id int) (core.GuardResult, error)
	CloseInvoice(ctx context.Context, id int) (*InvoiceResult, error)
	GetInvoice(ctx context.Context, id int) (*InvoiceResult, error)
	ListInvoices(ctx context.Context, shipmentID int) ([]core.Invoice, error)
	ApplySettlement(ctx context.Context, invoiceID int, req SettlementRequest) (*core.Settlement, error)

	// Reports
	GetStatement(ctx context.Context, req StatementRequest) (*core.Statement, error)
	GetAgingReport(ctx context.Context, req AgingRequest) (*AgingResult, error)
}

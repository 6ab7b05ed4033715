package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"freightops/internal/core"
	"freightops/internal/db"
	"freightops/internal/metrics"
)

// Services bundles the core services the application facade delegates to.
type Services struct {
	Reference core.ReferenceData
	Shipments core.ShipmentService
	Parties   core.PartyService
	Cargo     core.CargoService
	Costings  core.CostingService
	Invoices  core.InvoiceService
	Reports   core.ReportingService
}

// NewServices wires every core service over one pool.
func NewServices(pool *pgxpool.Pool, ref core.ReferenceData, logger zerolog.Logger) Services {
	docs := core.NewDocumentService(pool)
	return Services{
		Reference: ref,
		Shipments: core.NewShipmentService(pool, ref, docs),
		Parties:   core.NewPartyService(pool),
		Cargo:     core.NewCargoService(pool, ref),
		Costings:  core.NewCostingService(pool, ref),
		Invoices:  core.NewInvoiceService(pool, docs, logger),
		Reports:   core.NewReportingService(pool),
	}
}

type appService struct {
	pool         *pgxpool.Pool
	svc          Services
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	printBaseURL string
	now          func() time.Time
}

// NewAppService constructs an appService that satisfies ApplicationService.
// pool may be nil when Health is not used; m may be nil to disable metrics.
func NewAppService(pool *pgxpool.Pool, svc Services, m *metrics.Metrics, logger zerolog.Logger, printBaseURL string) ApplicationService {
	return &appService{
		pool:         pool,
		svc:          svc,
		metrics:      m,
		logger:       logger.With().Str("component", "app").Logger(),
		printBaseURL: strings.TrimRight(printBaseURL, "/"),
		now:          time.Now,
	}
}

// observe records business metrics for err and passes it through unchanged.
func (s *appService) observe(op string, err error) error {
	if err == nil || s.metrics == nil {
		return err
	}
	ce, ok := core.AsError(err)
	if !ok {
		return err
	}
	switch ce.Kind {
	case core.KindGuard:
		s.metrics.RecordGuardRejection(ce.Code)
	case core.KindConflict:
		s.metrics.RecordConflict(op)
	case core.KindIntegrity:
		s.metrics.RecordIntegrityViolation(op)
	}
	return err
}

// ── Health & reference data ──────────────────────────────────────────────────

func (s *appService) Health(ctx context.Context) (*HealthResult, error) {
	if s.pool == nil {
		return &HealthResult{Status: "ok"}, nil
	}
	if err := s.pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	v, err := db.MigrationVersion(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	return &HealthResult{Status: "ok", SchemaVersion: v}, nil
}

func (s *appService) ListReference(ctx context.Context, kind string) (*ReferenceListResult, error) {
	k := core.RefKind(kind)
	if !k.IsValid() {
		return nil, core.ValidationError("unknown reference list", map[string]string{
			"kind": "must be one of currency, unit, port, container_type, package_type, incoterm",
		})
	}
	return &ReferenceListResult{Kind: k, Items: s.svc.Reference.List(k)}, nil
}

func (s *appService) RefreshReference(ctx context.Context) (*ReferenceRefreshResult, error) {
	if err := s.svc.Reference.Refresh(ctx); err != nil {
		return nil, err
	}
	counts := make(map[core.RefKind]int)
	for _, k := range []core.RefKind{core.RefCurrency, core.RefUnit, core.RefPort,
		core.RefContainerType, core.RefPackageType, core.RefIncoterm} {
		counts[k] = len(s.svc.Reference.List(k))
	}
	s.logger.Info().Interface("counts", counts).Msg("reference data refreshed")
	return &ReferenceRefreshResult{Counts: counts}, nil
}

// ── Shipments ────────────────────────────────────────────────────────────────

func shipmentInput(req UpdateShipmentRequest) (core.ShipmentInput, error) {
	jobDate, err := parseDate("job_date", req.JobDate)
	if err != nil {
		return core.ShipmentInput{}, err
	}
	return core.ShipmentInput{
		JobDate:      jobDate,
		Direction:    core.Direction(req.Direction),
		Mode:         core.Mode(req.Mode),
		POLCode:      req.POLCode,
		PODCode:      req.PODCode,
		IncotermCode: req.IncotermCode,
		MBLNumber:    req.MBLNumber,
		HBLNumber:    req.HBLNumber,
		Remarks:      req.Remarks,
	}, nil
}

func (s *appService) CreateShipment(ctx context.Context, req CreateShipmentRequest) (*core.Shipment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	office, err := s.svc.Shipments.GetOfficeByCode(ctx, req.OfficeCode)
	if err != nil {
		return nil, err
	}
	in, err := shipmentInput(req.UpdateShipmentRequest)
	if err != nil {
		return nil, err
	}
	return s.svc.Shipments.CreateShipment(ctx, office.ID, in)
}

func (s *appService) GetShipment(ctx context.Context, id int) (*core.Shipment, error) {
	return s.svc.Shipments.GetShipment(ctx, id)
}

func (s *appService) ListShipments(ctx context.Context, req ListShipmentsRequest) (*ShipmentListResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	office, err := s.svc.Shipments.GetOfficeByCode(ctx, req.OfficeCode)
	if err != nil {
		return nil, err
	}
	var status *core.ShipmentStatus
	if req.Status != nil {
		st := core.ShipmentStatus(*req.Status)
		status = &st
	}
	list, err := s.svc.Shipments.ListShipments(ctx, office.ID, status)
	if err != nil {
		return nil, err
	}
	return &ShipmentListResult{OfficeCode: office.Code, Shipments: list}, nil
}

func (s *appService) UpdateShipment(ctx context.Context, id int, req UpdateShipmentRequest) (*core.Shipment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	in, err := shipmentInput(req)
	if err != nil {
		return nil, err
	}
	return s.svc.Shipments.UpdateShipment(ctx, id, in)
}

func (s *appService) SetShipmentStatus(ctx context.Context, id int, req SetShipmentStatusRequest) (*core.Shipment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	sh, err := s.svc.Shipments.SetShipmentStatus(ctx, id, core.ShipmentStatus(req.Status), req.Remarks)
	return sh, s.observe("set_shipment_status", err)
}

func (s *appService) AddStatusLog(ctx context.Context, shipmentID int, req AddStatusLogRequest) (*core.StatusLog, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var eventTime time.Time
	if req.EventTime != "" {
		t, err := time.Parse(time.RFC3339, req.EventTime)
		if err != nil {
			return nil, core.ValidationError("invalid status log", map[string]string{"event_time": "must be RFC 3339"})
		}
		eventTime = t
	}
	return s.svc.Shipments.AddStatusLog(ctx, shipmentID, eventTime, req.Description, req.Remarks)
}

func (s *appService) ListStatusLogs(ctx context.Context, shipmentID int) ([]core.StatusLog, error) {
	return s.svc.Shipments.ListStatusLogs(ctx, shipmentID)
}

func (s *appService) DeleteStatusLog(ctx context.Context, id int) error {
	return s.svc.Shipments.DeleteStatusLog(ctx, id)
}

// ── Parties ──────────────────────────────────────────────────────────────────

func (s *appService) AddParty(ctx context.Context, shipmentID int, req AddPartyRequest) (*core.Party, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	customerID := req.CustomerID
	if customerID == 0 {
		c, err := s.svc.Parties.GetCustomerByCode(ctx, req.CustomerCode)
		if err != nil {
			return nil, err
		}
		customerID = c.ID
	}
	p, err := s.svc.Parties.AddParty(ctx, shipmentID, customerID, core.PartyCategory(req.Category))
	return p, s.observe("add_party", err)
}

func (s *appService) ListParties(ctx context.Context, shipmentID int) ([]core.Party, error) {
	return s.svc.Parties.ListParties(ctx, shipmentID)
}

func (s *appService) DeleteParty(ctx context.Context, id int) error {
	return s.observe("delete_party", s.svc.Parties.DeleteParty(ctx, id))
}

func (s *appService) CanDeleteParty(ctx context.Context, id int) (core.GuardResult, error) {
	return s.svc.Parties.CanDeleteParty(ctx, id)
}

// ── Containers & cargo ───────────────────────────────────────────────────────

func containerInput(req ContainerRequest) core.ContainerInput {
	return core.ContainerInput{
		ContainerNo:       strings.ToUpper(strings.TrimSpace(req.ContainerNo)),
		ContainerTypeCode: req.ContainerTypeCode,
		SealNo:            req.SealNo,
		GrossWeight:       req.GrossWeight,
		NetWeight:         req.NetWeight,
		VolumeCBM:         req.VolumeCBM,
		PackageCount:      req.PackageCount,
	}
}

func cargoInput(req CargoRequest) core.CargoInput {
	return core.CargoInput{
		Description:     req.Description,
		HSCode:          req.HSCode,
		PackageTypeCode: req.PackageTypeCode,
		PackageCount:    req.PackageCount,
		GrossWeight:     req.GrossWeight,
		VolumeCBM:       req.VolumeCBM,
		Marks:           req.Marks,
	}
}

func (s *appService) AddContainer(ctx context.Context, shipmentID int, req ContainerRequest) (*core.Container, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.svc.Cargo.AddContainer(ctx, shipmentID, containerInput(req))
}

func (s *appService) UpdateContainer(ctx context.Context, id int, req ContainerRequest) (*core.Container, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.svc.Cargo.UpdateContainer(ctx, id, containerInput(req))
}

func (s *appService) DeleteContainer(ctx context.Context, id int) error {
	return s.svc.Cargo.DeleteContainer(ctx, id)
}

func (s *appService) ListContainers(ctx context.Context, shipmentID int) ([]core.Container, error) {
	return s.svc.Cargo.ListContainers(ctx, shipmentID)
}

func (s *appService) AddCargo(ctx context.Context, shipmentID int, req CargoRequest) (*core.Cargo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.svc.Cargo.AddCargo(ctx, shipmentID, cargoInput(req))
}

func (s *appService) UpdateCargo(ctx context.Context, id int, req CargoRequest) (*core.Cargo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.svc.Cargo.UpdateCargo(ctx, id, cargoInput(req))
}

func (s *appService) DeleteCargo(ctx context.Context, id int) error {
	return s.svc.Cargo.DeleteCargo(ctx, id)
}

func (s *appService) ListCargo(ctx context.Context, shipmentID int) ([]core.Cargo, error) {
	return s.svc.Cargo.ListCargo(ctx, shipmentID)
}

// ── Costing ──────────────────────────────────────────────────────────────────

func sideInput(req CostingSideRequest) core.SideInput {
	return core.SideInput{
		Qty:          req.Qty,
		Unit:         req.Unit,
		CurrencyCode: strings.ToUpper(req.CurrencyCode),
		ExRate:       req.ExRate,
		TaxPct:       req.TaxPct,
	}
}

// costingInput drops the client-supplied fcy, lcy and gp; core recomputes them.
func costingInput(req CostingRequest) core.CostingInput {
	return core.CostingInput{
		ChargeDescription: strings.TrimSpace(req.ChargeDescription),
		BasisCode:         req.BasisCode,
		BillToPartyID:     req.BillToPartyID,
		VendorPartyID:     req.VendorPartyID,
		Sale:              sideInput(req.Sale),
		Cost:              sideInput(req.Cost),
	}
}

func (s *appService) AddCosting(ctx context.Context, shipmentID int, req CostingRequest) (*core.Costing, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.svc.Costings.AddCosting(ctx, shipmentID, costingInput(req))
}

func (s *appService) UpdateCosting(ctx context.Context, id int, req CostingRequest) (*core.Costing, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	c, err := s.svc.Costings.UpdateCosting(ctx, id, costingInput(req))
	return c, s.observe("update_costing", err)
}

func (s *appService) DeleteCosting(ctx context.Context, id int) error {
	return s.observe("delete_costing", s.svc.Costings.DeleteCosting(ctx, id))
}

func (s *appService) CanDeleteCosting(ctx context.Context, id int) (core.GuardResult, error) {
	return s.svc.Costings.CanDeleteCosting(ctx, id)
}

func (s *appService) GetCosting(ctx context.Context, id int) (*core.Costing, error) {
	return s.svc.Costings.GetCosting(ctx, id)
}

func (s *appService) ListCostings(ctx context.Context, shipmentID int) (*core.CostingSheet, error) {
	return s.svc.Costings.ListCostings(ctx, shipmentID)
}

// ── Invoices ─────────────────────────────────────────────────────────────────

// invoiceResult attaches settlements and the print URL.
func (s *appService) invoiceResult(ctx context.Context, inv *core.Invoice) (*InvoiceResult, error) {
	settlements, err := s.svc.Invoices.ListSettlements(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	s.decorate(inv)
	return &InvoiceResult{Invoice: inv, Settlements: settlements}, nil
}

func (s *appService) decorate(inv *core.Invoice) {
	if s.printBaseURL != "" {
		inv.PrintURL = fmt.Sprintf("%s/invoices/%d", s.printBaseURL, inv.ID)
	}
}

func (s *appService) GenerateInvoice(ctx context.Context, shipmentID int, req GenerateInvoiceRequest) (*InvoiceResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	invoiceDate, err := parseDate("invoice_date", req.InvoiceDate)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseOptionalDate("due_date", req.DueDate)
	if err != nil {
		return nil, err
	}

	inv, err := s.svc.Invoices.GenerateInvoice(ctx, core.GenerateInvoiceInput{
		Kind:        core.InvoiceKind(req.Kind),
		ShipmentID:  shipmentID,
		PartyID:     req.PartyID,
		CostingIDs:  req.CostingIDs,
		InvoiceDate: invoiceDate,
		DueDate:     dueDate,
	})
	if err != nil {
		return nil, s.observe("generate_invoice", err)
	}
	if s.metrics != nil {
		s.metrics.RecordInvoiceGenerated(string(inv.Kind))
	}
	return s.invoiceResult(ctx, inv)
}

func (s *appService) UpdateInvoice(ctx context.Context, id int, req UpdateInvoiceRequest) (*InvoiceResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	invoiceDate, err := parseOptionalDate("invoice_date", req.InvoiceDate)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseOptionalDate("due_date", req.DueDate)
	if err != nil {
		return nil, err
	}
	inv, err := s.svc.Invoices.UpdateInvoice(ctx, id, core.UpdateInvoiceInput{
		CostingIDs:  req.CostingIDs,
		InvoiceDate: invoiceDate,
		DueDate:     dueDate,
	})
	if err != nil {
		return nil, s.observe("update_invoice", err)
	}
	return s.invoiceResult(ctx, inv)
}

func (s *appService) DeleteInvoice(ctx context.Context, id int) error {
	return s.observe("delete_invoice", s.svc.Invoices.DeleteInvoice(ctx, id))
}

func (s *appService) CanDeleteInvoice(ctx context.Context, id int) (core.GuardResult, error) {
	return s.svc.Invoices.CanDeleteInvoice(ctx, id)
}

func (s *appService) CloseInvoice(ctx context.Context, id int) (*InvoiceResult, error) {
	inv, err := s.svc.Invoices.CloseInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.invoiceResult(ctx, inv)
}

func (s *appService) GetInvoice(ctx context.Context, id int) (*InvoiceResult, error) {
	inv, err := s.svc.Invoices.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.invoiceResult(ctx, inv)
}

func (s *appService) ListInvoices(ctx context.Context, shipmentID int) ([]core.Invoice, error) {
	list, err := s.svc.Invoices.ListInvoices(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		s.decorate(&list[i])
	}
	return list, nil
}

func (s *appService) ApplySettlement(ctx context.Context, invoiceID int, req SettlementRequest) (*core.Settlement, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	date, err := parseDate("settlement_date", req.Date)
	if err != nil {
		return nil, err
	}
	st, err := s.svc.Invoices.ApplySettlement(ctx, invoiceID, core.SettlementInput{
		Amount:    req.Amount,
		Date:      date,
		Reference: req.Reference,
	})
	if err != nil {
		return nil, s.observe("apply_settlement", err)
	}
	if s.metrics != nil {
		s.metrics.RecordSettlement(string(st.Kind))
	}
	return st, nil
}

// ── Reports ──────────────────────────────────────────────────────────────────

func (s *appService) resolveCustomer(ctx context.Context, id int, code string) (int, error) {
	if id != 0 {
		return id, nil
	}
	c, err := s.svc.Parties.GetCustomerByCode(ctx, code)
	if err != nil {
		return 0, err
	}
	return c.ID, nil
}

func (s *appService) GetStatement(ctx context.Context, req StatementRequest) (*core.Statement, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	from, err := parseDate("from", req.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDate("to", req.To)
	if err != nil {
		return nil, err
	}
	customerID, err := s.resolveCustomer(ctx, req.CustomerID, req.CustomerCode)
	if err != nil {
		return nil, err
	}
	return s.svc.Reports.GetStatement(ctx, customerID, from, to)
}

func (s *appService) GetAgingReport(ctx context.Context, req AgingRequest) (*AgingResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := core.ValidateAgingBounds(req.Buckets); err != nil {
		return nil, err
	}
	asOf := s.now()
	if req.AsOf != "" {
		d, err := parseDate("as_of", req.AsOf)
		if err != nil {
			return nil, err
		}
		asOf = d
	}

	var customerID *int
	if req.CustomerID != 0 || req.CustomerCode != "" {
		id, err := s.resolveCustomer(ctx, req.CustomerID, req.CustomerCode)
		if err != nil {
			return nil, err
		}
		customerID = &id
	}

	kind := core.InvoiceKind(req.Kind)
	rows, err := s.svc.Reports.GetAgingReport(ctx, kind, customerID, asOf)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.BalanceAmount)
	}
	return &AgingResult{
		Kind:         kind,
		AsOf:         asOf,
		Rows:         rows,
		Buckets:      core.SummarizeAging(rows, req.Buckets),
		TotalBalance: total,
	}, nil
}

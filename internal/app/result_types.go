package app

import (
	"time"

	"github.com/shopspring/decimal"

	"freightops/internal/core"
)

// HealthResult is returned by Health.
type HealthResult struct {
	Status        string `json:"status"`
	SchemaVersion int64  `json:"schema_version"`
}

// ReferenceListResult is returned by ListReference.
type ReferenceListResult struct {
	Kind  core.RefKind   `json:"kind"`
	Items []core.RefItem `json:"items"`
}

// ReferenceRefreshResult reports per-kind counts after a reload.
type ReferenceRefreshResult struct {
	Counts map[core.RefKind]int `json:"counts"`
}

// ShipmentListResult is returned by ListShipments.
type ShipmentListResult struct {
	OfficeCode string          `json:"office_code"`
	Shipments  []core.Shipment `json:"shipments"`
}

// InvoiceResult is an invoice with its settlements.
type InvoiceResult struct {
	Invoice     *core.Invoice     `json:"invoice"`
	Settlements []core.Settlement `json:"settlements"`
}

// AgingResult is returned by GetAgingReport.
type AgingResult struct {
	Kind         core.InvoiceKind   `json:"kind"`
	AsOf         time.Time          `json:"as_of"`
	Rows         []core.AgingRow    `json:"rows"`
	Buckets      []core.AgingBucket `json:"buckets"`
	TotalBalance decimal.Decimal    `json:"total_balance"`
}

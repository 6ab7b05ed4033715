package app

import (
	"github.com/shopspring/decimal"
)

// Dates are YYYY-MM-DD strings on every request.

// CreateShipmentRequest opens a new job in an office.
type CreateShipmentRequest struct {
	OfficeCode string `json:"office_code" validate:"required"`
	UpdateShipmentRequest
}

// UpdateShipmentRequest carries the editable shipment fields. The job number is not editable.
type UpdateShipmentRequest struct {
	JobDate      string  `json:"job_date" validate:"required,datetime=2006-01-02"`
	Direction    string  `json:"direction" validate:"required,oneof=Import Export CrossTrade"`
	Mode         string  `json:"mode" validate:"required,oneof=SeaFreightFCL SeaFreightLCL AirFreight BreakBulk RoRo"`
	POLCode      *string `json:"pol_code,omitempty"`
	PODCode      *string `json:"pod_code,omitempty"`
	IncotermCode *string `json:"incoterm_code,omitempty"`
	MBLNumber    *string `json:"mbl_number,omitempty" validate:"omitempty,max=50"`
	HBLNumber    *string `json:"hbl_number,omitempty" validate:"omitempty,max=50"`
	Remarks      *string `json:"remarks,omitempty"`
}

type ListShipmentsRequest struct {
	OfficeCode string  `json:"office_code" validate:"required"`
	Status     *string `json:"status,omitempty" validate:"omitempty,oneof=Opened Closed Cancelled"`
}

type SetShipmentStatusRequest struct {
	Status  string `json:"status" validate:"required,oneof=Opened Closed Cancelled"`
	Remarks string `json:"remarks,omitempty"`
}

type AddStatusLogRequest struct {
	EventTime   string  `json:"event_time,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"` // RFC 3339; defaults to now
	Description string  `json:"description" validate:"required,max=500"`
	Remarks     *string `json:"remarks,omitempty"`
}

// AddPartyRequest names the customer by id or code.
type AddPartyRequest struct {
	CustomerID   int    `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	CustomerCode string `json:"customer_code,omitempty" validate:"required_without=CustomerID"`
	Category     string `json:"category" validate:"required,oneof=Shipper Consignee Notify Debtor Creditor Neutral Agent"`
}

type ContainerRequest struct {
	ContainerNo       string          `json:"container_no" validate:"required,max=20"`
	ContainerTypeCode string          `json:"container_type_code" validate:"required"`
	SealNo            *string         `json:"seal_no,omitempty"`
	GrossWeight       decimal.Decimal `json:"gross_weight" validate:"gte=0"`
	NetWeight         decimal.Decimal `json:"net_weight" validate:"gte=0"`
	VolumeCBM         decimal.Decimal `json:"volume_cbm" validate:"gte=0"`
	PackageCount      int             `json:"package_count" validate:"gte=0"`
}

type CargoRequest struct {
	Description     string          `json:"description" validate:"required"`
	HSCode          *string         `json:"hs_code,omitempty" validate:"omitempty,max=12"`
	PackageTypeCode string          `json:"package_type_code" validate:"required"`
	PackageCount    int             `json:"package_count" validate:"gte=0"`
	GrossWeight     decimal.Decimal `json:"gross_weight" validate:"gte=0"`
	VolumeCBM       decimal.Decimal `json:"volume_cbm" validate:"gte=0"`
	Marks           *string         `json:"marks,omitempty"`
}

// CostingSideRequest is one side of a costing line as submitted.
type CostingSideRequest struct {
	Qty          decimal.Decimal `json:"qty" validate:"gte=0"`
	Unit         decimal.Decimal `json:"unit" validate:"gte=0"`
	CurrencyCode string          `json:"currency_code" validate:"required,len=3"`
	ExRate       decimal.Decimal `json:"ex_rate" validate:"gte=0"`
	TaxPct       decimal.Decimal `json:"tax_pct" validate:"gte=0,lte=100"`

	// Derived on the server; accepted so clients can echo what they display.
	FCY *decimal.Decimal `json:"fcy,omitempty"`
	LCY *decimal.Decimal `json:"lcy,omitempty"`
}

type CostingRequest struct {
	ChargeDescription string             `json:"charge_description" validate:"required,max=200"`
	BasisCode         string             `json:"basis_code" validate:"required"`
	BillToPartyID     *int               `json:"bill_to_party_id,omitempty" validate:"omitempty,gt=0"`
	VendorPartyID     *int               `json:"vendor_party_id,omitempty" validate:"omitempty,gt=0"`
	Sale              CostingSideRequest `json:"sale"`
	Cost              CostingSideRequest `json:"cost"`
	GP                *decimal.Decimal   `json:"gp,omitempty"` // ignored, always recomputed
}

type GenerateInvoiceRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=Invoice PurchaseInvoice"`
	PartyID     int    `json:"party_id" validate:"required,gt=0"`
	CostingIDs  []int  `json:"costing_ids" validate:"required,min=1,dive,gt=0"`
	InvoiceDate string `json:"invoice_date" validate:"required,datetime=2006-01-02"`
	DueDate     string `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateInvoiceRequest struct {
	CostingIDs  []int  `json:"costing_ids" validate:"required,min=1,dive,gt=0"`
	InvoiceDate string `json:"invoice_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DueDate     string `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type SettlementRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Date      string          `json:"settlement_date" validate:"required,datetime=2006-01-02"`
	Reference *string         `json:"reference,omitempty" validate:"omitempty,max=100"`
}

// StatementRequest names the customer by id or code.
type StatementRequest struct {
	CustomerID   int    `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	CustomerCode string `json:"customer_code,omitempty" validate:"required_without=CustomerID"`
	From         string `json:"from" validate:"required,datetime=2006-01-02"`
	To           string `json:"to" validate:"required,datetime=2006-01-02"`
}

type AgingRequest struct {
	Kind         string `json:"kind" validate:"required,oneof=Invoice PurchaseInvoice"`
	CustomerID   int    `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	CustomerCode string `json:"customer_code,omitempty"`
	AsOf         string `json:"as_of,omitempty" validate:"omitempty,datetime=2006-01-02"` // defaults to today
	Buckets      []int  `json:"buckets,omitempty" validate:"omitempty,dive,gt=0"`
}

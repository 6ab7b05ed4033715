package core

import (
	"time"
)

// Office scopes document numbering and fixes the local currency (LCY).
type Office struct {
	ID            int    `json:"id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	LocalCurrency string `json:"local_currency"`
}

// ShipmentStatus is the lifecycle state of a shipment (job).
type ShipmentStatus string

const (
	ShipmentOpened    ShipmentStatus = "Opened"
	ShipmentClosed    ShipmentStatus = "Closed"
	ShipmentCancelled ShipmentStatus = "Cancelled"
)

// CanTransition is the single source of truth for shipment status changes.
//
//	Opened → Closed → Opened (reopen)
//	Opened → Cancelled (terminal)
func (s ShipmentStatus) CanTransition(to ShipmentStatus) bool {
	switch s {
	case ShipmentOpened:
		return to == ShipmentClosed || to == ShipmentCancelled
	case ShipmentClosed:
		return to == ShipmentOpened
	}
	return false
}

func (s ShipmentStatus) IsValid() bool {
	switch s {
	case ShipmentOpened, ShipmentClosed, ShipmentCancelled:
		return true
	}
	return false
}

type Direction string

const (
	DirectionImport     Direction = "Import"
	DirectionExport     Direction = "Export"
	DirectionCrossTrade Direction = "CrossTrade"
)

func (d Direction) IsValid() bool {
	switch d {
	case DirectionImport, DirectionExport, DirectionCrossTrade:
		return true
	}
	return false
}

type Mode string

const (
	ModeSeaFCL    Mode = "SeaFreightFCL"
	ModeSeaLCL    Mode = "SeaFreightLCL"
	ModeAir       Mode = "AirFreight"
	ModeBreakBulk Mode = "BreakBulk"
	ModeRoRo      Mode = "RoRo"
)

func (m Mode) IsValid() bool {
	switch m {
	case ModeSeaFCL, ModeSeaLCL, ModeAir, ModeBreakBulk, ModeRoRo:
		return true
	}
	return false
}

// Shipment is the job header. JobNumber is assigned once on create and never changes.
// Shipments are never hard-deleted; Cancelled is the terminal state.
type Shipment struct {
	ID           int            `json:"id"`
	OfficeID     int            `json:"office_id"`
	OfficeCode   string         `json:"office_code"` // joined from offices
	JobNumber    string         `json:"job_number"`
	JobDate      time.Time      `json:"job_date"`
	Status       ShipmentStatus `json:"status"`
	Direction    Direction      `json:"direction"`
	Mode         Mode           `json:"mode"`
	POLCode      *string        `json:"pol_code,omitempty"`
	PODCode      *string        `json:"pod_code,omitempty"`
	IncotermCode *string        `json:"incoterm_code,omitempty"`
	MBLNumber    *string        `json:"mbl_number,omitempty"`
	HBLNumber    *string        `json:"hbl_number,omitempty"`
	Remarks      *string        `json:"remarks,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ShipmentInput carries the editable shipment fields.
type ShipmentInput struct {
	JobDate      time.Time
	Direction    Direction
	Mode         Mode
	POLCode      *string
	PODCode      *string
	IncotermCode *string
	MBLNumber    *string
	HBLNumber    *string
	Remarks      *string
}

// Validate checks enum membership and required fields.
func (in ShipmentInput) Validate() error {
	fields := map[string]string{}
	if in.JobDate.IsZero() {
		fields["job_date"] = "is required"
	}
	if !in.Direction.IsValid() {
		fields["direction"] = "must be one of Import, Export, CrossTrade"
	}
	if !in.Mode.IsValid() {
		fields["mode"] = "must be one of SeaFreightFCL, SeaFreightLCL, AirFreight, BreakBulk, RoRo"
	}
	if len(fields) > 0 {
		return ValidationError("invalid shipment", fields)
	}
	return nil
}

// StatusLog is a timestamped event on a shipment.
type StatusLog struct {
	ID          int       `json:"id"`
	ShipmentID  int       `json:"shipment_id"`
	EventTime   time.Time `json:"event_time"`
	Description string    `json:"description"`
	Remarks     *string   `json:"remarks,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

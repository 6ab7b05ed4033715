package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Container is one equipment unit on a shipment.
type Container struct {
	ID                int             `json:"id"`
	ShipmentID        int             `json:"shipment_id"`
	ContainerNo       string          `json:"container_no"`
	ContainerTypeCode string          `json:"container_type_code"`
	SealNo            *string         `json:"seal_no,omitempty"`
	GrossWeight       decimal.Decimal `json:"gross_weight"`
	NetWeight         decimal.Decimal `json:"net_weight"`
	VolumeCBM         decimal.Decimal `json:"volume_cbm"`
	PackageCount      int             `json:"package_count"`
}

type ContainerInput struct {
	ContainerNo       string
	ContainerTypeCode string
	SealNo            *string
	GrossWeight       decimal.Decimal
	NetWeight         decimal.Decimal
	VolumeCBM         decimal.Decimal
	PackageCount      int
}

func (in ContainerInput) Validate() error {
	fields := map[string]string{}
	if in.ContainerNo == "" {
		fields["container_no"] = "is required"
	}
	if in.ContainerTypeCode == "" {
		fields["container_type_code"] = "is required"
	}
	checkNonNegative(fields, "gross_weight", in.GrossWeight)
	checkNonNegative(fields, "net_weight", in.NetWeight)
	checkNonNegative(fields, "volume_cbm", in.VolumeCBM)
	checkNumeric(fields, "gross_weight", in.GrossWeight, 18, 3)
	checkNumeric(fields, "net_weight", in.NetWeight, 18, 3)
	checkNumeric(fields, "volume_cbm", in.VolumeCBM, 18, 3)
	if in.PackageCount < 0 {
		fields["package_count"] = "must be >= 0"
	}
	if in.NetWeight.GreaterThan(in.GrossWeight) {
		fields["net_weight"] = "must not exceed gross_weight"
	}
	if len(fields) > 0 {
		return ValidationError("invalid container", fields)
	}
	return nil
}

// Cargo is one commodity line on a shipment.
type Cargo struct {
	ID              int             `json:"id"`
	ShipmentID      int             `json:"shipment_id"`
	Description     string          `json:"description"`
	HSCode          *string         `json:"hs_code,omitempty"`
	PackageTypeCode string          `json:"package_type_code"`
	PackageCount    int             `json:"package_count"`
	GrossWeight     decimal.Decimal `json:"gross_weight"`
	VolumeCBM       decimal.Decimal `json:"volume_cbm"`
	Marks           *string         `json:"marks,omitempty"`
}

type CargoInput struct {
	Description     string
	HSCode          *string
	PackageTypeCode string
	PackageCount    int
	GrossWeight     decimal.Decimal
	VolumeCBM       decimal.Decimal
	Marks           *string
}

func (in CargoInput) Validate() error {
	fields := map[string]string{}
	if in.Description == "" {
		fields["description"] = "is required"
	}
	if in.PackageTypeCode == "" {
		fields["package_type_code"] = "is required"
	}
	if in.PackageCount < 0 {
		fields["package_count"] = "must be >= 0"
	}
	checkNonNegative(fields, "gross_weight", in.GrossWeight)
	checkNonNegative(fields, "volume_cbm", in.VolumeCBM)
	checkNumeric(fields, "gross_weight", in.GrossWeight, 18, 3)
	checkNumeric(fields, "volume_cbm", in.VolumeCBM, 18, 3)
	if len(fields) > 0 {
		return ValidationError("invalid cargo", fields)
	}
	return nil
}

func checkNonNegative(fields map[string]string, name string, v decimal.Decimal) {
	if v.IsNegative() {
		fields[name] = "must be >= 0"
	}
}

// checkNumeric rejects values a NUMERIC(precision, scale) column would round or refuse.
// A field that already carries a problem is left alone.
func checkNumeric(fields map[string]string, name string, v decimal.Decimal, precision, scale int32) {
	if _, bad := fields[name]; bad {
		return
	}
	if !v.Equal(v.Truncate(scale)) {
		fields[name] = fmt.Sprintf("must have at most %d decimal places", scale)
		return
	}
	if limit := decimal.New(1, precision-scale); v.Abs().GreaterThanOrEqual(limit) {
		fields[name] = fmt.Sprintf("must be less than %s", limit)
	}
}

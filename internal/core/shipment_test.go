package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"freightops/internal/core"
)

func TestShipmentStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to core.ShipmentStatus
		ok       bool
	}{
		{core.ShipmentOpened, core.ShipmentClosed, true},
		{core.ShipmentOpened, core.ShipmentCancelled, true},
		{core.ShipmentClosed, core.ShipmentOpened, true},
		{core.ShipmentClosed, core.ShipmentCancelled, false},
		{core.ShipmentCancelled, core.ShipmentOpened, false},
		{core.ShipmentOpened, core.ShipmentOpened, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestShipmentInput_Validate(t *testing.T) {
	err := core.ShipmentInput{Direction: "Sideways", Mode: core.ModeAir}.Validate()
	ce, ok := core.AsError(err)
	if assert.True(t, ok) {
		assert.Contains(t, ce.Fields, "job_date")
		assert.Contains(t, ce.Fields, "direction")
		assert.NotContains(t, ce.Fields, "mode")
	}

	assert.NoError(t, core.ShipmentInput{JobDate: day("2026-01-01"), Direction: core.DirectionImport, Mode: core.ModeSeaFCL}.Validate())
}

func TestContainerInput_Validate(t *testing.T) {
	err := core.ContainerInput{ContainerNo: "MSCU1234567", ContainerTypeCode: "40HC",
		GrossWeight: dec("1000"), NetWeight: dec("1200")}.Validate()
	ce, ok := core.AsError(err)
	if assert.True(t, ok) {
		assert.Contains(t, ce.Fields, "net_weight")
	}
}

func TestContainerInput_ValidateColumnScale(t *testing.T) {
	err := core.ContainerInput{ContainerNo: "MSCU1234567", ContainerTypeCode: "40HC",
		GrossWeight: dec("1000.0005"), NetWeight: dec("900")}.Validate()
	ce, ok := core.AsError(err)
	if assert.True(t, ok) {
		assert.Equal(t, "must have at most 3 decimal places", ce.Fields["gross_weight"])
	}
}

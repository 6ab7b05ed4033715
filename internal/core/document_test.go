package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"freightops/internal/core"
)

func TestFormatDocumentNumber(t *testing.T) {
	assert.Equal(t, "JOB-DXB-2026-00001", core.FormatDocumentNumber(core.PrefixJob, "DXB", 2026, 1))
	assert.Equal(t, "INV-BOM-2025-00420", core.FormatDocumentNumber(core.PrefixInvoice, "BOM", 2025, 420))
	assert.Equal(t, "PV-DXB-2026-123456", core.FormatDocumentNumber(core.PrefixPaymentVoucher, "DXB", 2026, 123456))
}

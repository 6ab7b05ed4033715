package app

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightops/internal/core"
)

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	ce, ok := core.AsError(err)
	require.True(t, ok, "expected core error, got %T", err)
	assert.Equal(t, core.KindValidation, ce.Kind)
	return ce.Fields
}

func TestValidateRequest_Costing(t *testing.T) {
	req := CostingRequest{
		ChargeDescription: "Ocean Freight",
		BasisCode:         "CNTR",
		Sale: CostingSideRequest{Qty: decimal.NewFromInt(10), Unit: decimal.NewFromInt(25),
			CurrencyCode: "USD", ExRate: decimal.RequireFromString("3.67")},
		Cost: CostingSideRequest{Qty: decimal.NewFromInt(10), Unit: decimal.NewFromInt(15),
			CurrencyCode: "USD", ExRate: decimal.RequireFromString("3.67")},
	}
	require.NoError(t, validateRequest(req))

	req.Sale.Qty = decimal.NewFromInt(-1)
	req.Cost.TaxPct = decimal.NewFromInt(101)
	req.Cost.CurrencyCode = "US"
	req.ChargeDescription = ""

	fields := fieldsOf(t, validateRequest(req))
	assert.Contains(t, fields, "sale.qty")
	assert.Contains(t, fields, "cost.tax_pct")
	assert.Contains(t, fields, "cost.currency_code")
	assert.Equal(t, "is required", fields["charge_description"])
}

func TestValidateRequest_GenerateInvoice(t *testing.T) {
	fields := fieldsOf(t, validateRequest(GenerateInvoiceRequest{Kind: "CreditNote", InvoiceDate: "15/01/2026"}))
	assert.Contains(t, fields, "kind")
	assert.Contains(t, fields, "party_id")
	assert.Contains(t, fields, "costing_ids")
	assert.Contains(t, fields, "invoice_date")

	assert.NoError(t, validateRequest(GenerateInvoiceRequest{
		Kind: "Invoice", PartyID: 3, CostingIDs: []int{1, 2}, InvoiceDate: "2026-01-15",
	}))
}

func TestValidateRequest_PartyNeedsCustomer(t *testing.T) {
	fields := fieldsOf(t, validateRequest(AddPartyRequest{Category: "Debtor"}))
	assert.Contains(t, fields, "customer_code")

	assert.NoError(t, validateRequest(AddPartyRequest{CustomerID: 4, Category: "Debtor"}))
	assert.NoError(t, validateRequest(AddPartyRequest{CustomerCode: "ACME", Category: "Shipper"}))
}

func TestValidateRequest_EmbeddedShipmentFields(t *testing.T) {
	fields := fieldsOf(t, validateRequest(CreateShipmentRequest{}))
	assert.Contains(t, fields, "office_code")
	assert.Contains(t, fields, "job_date")
	assert.Contains(t, fields, "mode")
}

func TestValidateRequest_Settlement(t *testing.T) {
	fields := fieldsOf(t, validateRequest(SettlementRequest{Amount: decimal.Zero, Date: "2026-02-01"}))
	assert.Contains(t, fields, "amount")
}

func TestParseOptionalDate(t *testing.T) {
	d, err := parseOptionalDate("due_date", "")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = parseOptionalDate("due_date", "2026-02-14")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-14", d.Format(dateLayout))
}

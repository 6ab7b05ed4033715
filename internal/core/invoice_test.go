package core_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightops/internal/core"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDerivePaymentStatus(t *testing.T) {
	now := day("2026-03-15")
	future := day("2026-04-01")
	past := day("2026-03-01")

	tests := []struct {
		name         string
		amount, paid string
		due          time.Time
		closed       bool
		want         core.PaymentStatus
	}{
		{"unpaid not due", "1000", "0", future, false, core.StatusPending},
		{"partially paid not due", "1000", "400", future, false, core.StatusPartiallyPaid},
		{"fully paid", "1000", "1000", past, false, core.StatusPaid},
		{"unpaid past due", "1000", "0", past, false, core.StatusOverdue},
		{"partial past due", "1000", "400", past, false, core.StatusOverdue},
		{"due today is not overdue", "1000", "0", now, false, core.StatusPending},
		{"closed wins over overdue", "1000", "0", past, true, core.StatusClosed},
		{"closed wins over paid", "1000", "1000", past, true, core.StatusClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.DerivePaymentStatus(dec(tt.amount), dec(tt.paid), tt.due, now, tt.closed)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettlementScenario_TwoReceiptsPayInFull(t *testing.T) {
	amount := dec("1000.00")
	paid := decimal.Zero
	for _, r := range []string{"400.00", "600.00"} {
		in := core.SettlementInput{Amount: dec(r), Date: day("2026-02-01")}
		require.NoError(t, core.ValidateSettlement(in, amount, paid, false))
		paid = paid.Add(in.Amount)
	}

	assert.True(t, dec("1000.00").Equal(paid))
	assert.True(t, amount.Sub(paid).IsZero())
	assert.Equal(t, core.StatusPaid, core.BasePaymentStatus(amount, paid, false))
	assert.Equal(t, core.StatusPaid, core.DerivePaymentStatus(amount, paid, day("2026-01-01"), day("2026-06-01"), false))
}

func TestValidateSettlement(t *testing.T) {
	date := day("2026-02-01")
	tests := []struct {
		name   string
		in     core.SettlementInput
		paid   string
		closed bool
		field  string
	}{
		{"zero amount", core.SettlementInput{Amount: decimal.Zero, Date: date}, "0", false, "amount"},
		{"negative amount", core.SettlementInput{Amount: dec("-5"), Date: date}, "0", false, "amount"},
		{"over balance", core.SettlementInput{Amount: dec("600.01"), Date: date}, "400", false, "amount"},
		{"too many decimals", core.SettlementInput{Amount: dec("1.005"), Date: date}, "0", false, "amount"},
		{"missing date", core.SettlementInput{Amount: dec("1")}, "0", false, "settlement_date"},
		{"closed invoice", core.SettlementInput{Amount: dec("1"), Date: date}, "0", true, "invoice_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.ValidateSettlement(tt.in, dec("1000"), dec(tt.paid), tt.closed)
			require.Error(t, err)
			ce, ok := core.AsError(err)
			require.True(t, ok)
			assert.Equal(t, core.KindValidation, ce.Kind)
			assert.Contains(t, ce.Fields, tt.field)
		})
	}

	t.Run("exact balance is accepted", func(t *testing.T) {
		err := core.ValidateSettlement(core.SettlementInput{Amount: dec("600"), Date: date}, dec("1000"), dec("400"), false)
		assert.NoError(t, err)
	})
}

func TestBuildInvoiceLines(t *testing.T) {
	bill, vendor := 11, 12
	costings := []core.Costing{
		{
			ID: 1, ChargeDescription: "Ocean Freight", BasisCode: "CNTR",
			BillToPartyID: &bill, VendorPartyID: &vendor,
			Sale: core.CostingSide{Qty: dec("10"), Unit: dec("25"), CurrencyCode: "USD", ExRate: dec("3.67"),
				FCY: dec("250.00"), LCY: dec("917.50"), TaxPct: dec("5"), TaxAmount: dec("45.88")},
			Cost: core.CostingSide{Qty: dec("10"), Unit: dec("15"), CurrencyCode: "USD", ExRate: dec("3.67"),
				FCY: dec("150.00"), LCY: dec("550.50"), TaxPct: dec("0"), TaxAmount: dec("0")},
		},
		{
			ID: 2, ChargeDescription: "DO Fee", BasisCode: "BL", BillToPartyID: &bill,
			Sale: core.CostingSide{Qty: dec("1"), Unit: dec("350"), CurrencyCode: "AED", ExRate: dec("1"),
				FCY: dec("350.00"), LCY: dec("350.00"), TaxPct: dec("5"), TaxAmount: dec("17.50")},
		},
	}

	t.Run("sales invoice snapshots the sale side", func(t *testing.T) {
		lines, totals := core.BuildInvoiceLines(core.KindInvoice, costings)
		require.Len(t, lines, 2)
		assert.Equal(t, 1, lines[0].LineNo)
		assert.Equal(t, 2, lines[1].LineNo)
		assert.True(t, dec("917.50").Equal(lines[0].Amount))
		assert.True(t, dec("3.67").Equal(lines[0].ROE))
		assert.Equal(t, "USD", lines[0].CurrencyCode)
		assert.True(t, dec("1267.50").Equal(totals.SubTotal))
		assert.True(t, dec("63.38").Equal(totals.TotalTax))
		assert.True(t, totals.Amount.Equal(totals.SubTotal.Add(totals.TotalTax)))
	})

	t.Run("purchase invoice snapshots the cost side", func(t *testing.T) {
		lines, totals := core.BuildInvoiceLines(core.KindPurchaseInvoice, costings[:1])
		require.Len(t, lines, 1)
		assert.True(t, dec("550.50").Equal(lines[0].Amount))
		assert.True(t, dec("15").Equal(lines[0].Rate))
		assert.True(t, dec("550.50").Equal(totals.Amount))
		assert.NoError(t, totals.Validate())
	})

	t.Run("zero-valued selection cannot be invoiced", func(t *testing.T) {
		// The DO fee carries no cost side, so a purchase invoice over it totals zero.
		_, totals := core.BuildInvoiceLines(core.KindPurchaseInvoice, costings[1:])
		require.True(t, totals.Amount.IsZero())

		err := totals.Validate()
		ce, ok := core.AsError(err)
		require.True(t, ok, "err %v", err)
		assert.Equal(t, core.CodeValidation, ce.Code)
		assert.Contains(t, ce.Fields, "costing_ids")
	})
}

package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightops/internal/app"
	"freightops/internal/core"
)

func TestPrintStatement(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	st := &core.Statement{
		CustomerCode: "ACME",
		CustomerName: "Acme Trading LLC",
		FromDate:     day,
		ToDate:       day.AddDate(0, 0, 30),
		Currency:     "AED",
		Entries: []core.StatementEntry{
			{Date: day, DocumentType: core.EntryOpening},
			{Date: day, DocumentType: core.EntryInvoice, DocumentNumber: "INV-DXB-2026-00001",
				Debit: decimal.NewFromInt(1000), Balance: decimal.NewFromInt(1000)},
		},
		TotalDebit:               decimal.NewFromInt(1000),
		NetOutstandingReceivable: decimal.NewFromInt(1000),
	}

	var buf bytes.Buffer
	printStatement(&buf, st)
	out := buf.String()
	assert.Contains(t, out, "STATEMENT OF ACCOUNT  ACME Acme Trading LLC")
	assert.Contains(t, out, "2026-03-01 to 2026-03-31")
	assert.Contains(t, out, "INV-DXB-2026-00001")
	assert.Contains(t, out, "1000.00")
}

func TestPrintAging(t *testing.T) {
	rows := []core.AgingRow{
		{InvoiceNumber: "INV-DXB-2026-00001", CustomerCode: "ACME", AgingDays: 45, BalanceAmount: decimal.NewFromInt(600), Amount: decimal.NewFromInt(1000)},
	}
	res := &app.AgingResult{
		Kind:         core.KindInvoice,
		AsOf:         time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Rows:         rows,
		Buckets:      core.SummarizeAging(rows, nil),
		TotalBalance: decimal.NewFromInt(600),
	}

	var buf bytes.Buffer
	printAging(&buf, res)
	out := buf.String()
	assert.Contains(t, out, "AGING  Invoice as of 2026-04-01")
	assert.Contains(t, out, "31-60")
	assert.Contains(t, out, "600.00")

	buf.Reset()
	printAging(&buf, &app.AgingResult{Kind: core.KindInvoice})
	assert.Contains(t, buf.String(), "No unpaid invoices.")
}

func TestPrintReferenceCounts_Sorted(t *testing.T) {
	var buf bytes.Buffer
	printReferenceCounts(&buf, &app.ReferenceRefreshResult{Counts: map[core.RefKind]int{
		core.RefUnit: 5, core.RefCurrency: 4,
	}})
	out := buf.String()
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("currency")), bytes.Index(buf.Bytes(), []byte("unit")), out)
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "statement", "aging", "refresh-reference"} {
		assert.True(t, names[want], want)
	}

	stmt, _, err := root.Find([]string{"statement"})
	require.NoError(t, err)
	assert.NotNil(t, stmt.Flags().Lookup("format"))
	assert.Equal(t, "table", stmt.Flags().Lookup("format").DefValue)
}

func TestCustomerFlag(t *testing.T) {
	id, code := customerFlag("12")
	assert.Equal(t, 12, id)
	assert.Empty(t, code)

	id, code = customerFlag("ACME")
	assert.Zero(t, id)
	assert.Equal(t, "ACME", code)
}

func TestCheckFormat(t *testing.T) {
	assert.NoError(t, checkFormat("csv"))
	assert.NoError(t, checkFormat("table"))
	assert.True(t, core.IsKind(checkFormat("xml"), core.KindValidation))
}

package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightops/internal/core"
)

func TestWriteStatementCSV(t *testing.T) {
	d := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	st := &core.Statement{
		Entries: []core.StatementEntry{
			{Date: d, DocumentType: core.EntryOpening, Balance: decimal.NewFromInt(100)},
			{Date: d, DocumentType: core.EntryInvoice, DocumentNumber: "INV-DXB-2026-00001",
				JobNumber: "JOB-DXB-2026-00001", Debit: decimal.RequireFromString("917.5"),
				Balance: decimal.RequireFromString("1017.5")},
			{Date: d.AddDate(0, 0, 3), DocumentType: core.EntryReceipt, DocumentNumber: "RCT-DXB-2026-00001",
				Reference: "=HYPERLINK()", Credit: decimal.NewFromInt(400), Balance: decimal.RequireFromString("617.5")},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteStatementCSV(&buf, st))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, statementHeader, records[0])
	assert.Equal(t, []string{"2026-03-01", "Invoice", "INV-DXB-2026-00001", "JOB-DXB-2026-00001", "", "917.50", "0.00", "1017.50"}, records[2])
	assert.Equal(t, "'=HYPERLINK()", records[3][4])
	assert.Equal(t, "617.50", records[3][7])
}

func TestWriteAgingCSV(t *testing.T) {
	rows := []core.AgingRow{{
		InvoiceNumber: "INV-DXB-2026-00002",
		CustomerCode:  "ACME",
		InvoiceDate:   time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC),
		Currency:      "AED",
		Amount:        decimal.NewFromInt(1000),
		PaidAmount:    decimal.NewFromInt(400),
		BalanceAmount: decimal.NewFromInt(600),
		AgingDays:     45,
		PaymentStatus: core.StatusOverdue,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteAgingCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "600.00", records[1][8])
	assert.Equal(t, "45", records[1][9])
	assert.Equal(t, "Overdue", records[1][10])
}

func TestCSVSafe(t *testing.T) {
	assert.Equal(t, "", csvSafe(""))
	assert.Equal(t, "ACME", csvSafe("ACME"))
	assert.Equal(t, "'-1", csvSafe("-1"))
	assert.Equal(t, "'@cmd", csvSafe("@cmd"))
}

// Package export renders report results as CSV for the web and CLI adapters.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"freightops/internal/core"
)

const dateLayout = "2006-01-02"

var statementHeader = []string{"Date", "Type", "Document", "Job", "Reference", "Debit", "Credit", "Balance"}

// WriteStatementCSV writes one row per statement entry, opening row included.
func WriteStatementCSV(w io.Writer, st *core.Statement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(statementHeader); err != nil {
		return err
	}
	for _, e := range st.Entries {
		if err := cw.Write([]string{
			e.Date.Format(dateLayout),
			e.DocumentType,
			csvSafe(e.DocumentNumber),
			csvSafe(e.JobNumber),
			csvSafe(e.Reference),
			e.Debit.StringFixed(2),
			e.Credit.StringFixed(2),
			e.Balance.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var agingHeader = []string{"Invoice", "Customer", "Job", "Invoice Date", "Due Date", "Currency", "Amount", "Paid", "Balance", "Days", "Status"}

// WriteAgingCSV writes one row per unpaid invoice.
func WriteAgingCSV(w io.Writer, rows []core.AgingRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(agingHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			r.InvoiceNumber,
			csvSafe(r.CustomerCode),
			r.JobNumber,
			r.InvoiceDate.Format(dateLayout),
			r.DueDate.Format(dateLayout),
			r.Currency,
			r.Amount.StringFixed(2),
			r.PaidAmount.StringFixed(2),
			r.BalanceAmount.StringFixed(2),
			strconv.Itoa(r.AgingDays),
			string(r.PaymentStatus),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// csvSafe prefixes values that a spreadsheet would evaluate as a formula.
func csvSafe(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

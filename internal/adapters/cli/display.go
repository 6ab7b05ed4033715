package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"freightops/internal/app"
	"freightops/internal/core"
)

const dateLayout = "2006-01-02"

func printStatement(w io.Writer, st *core.Statement) {
	rule := strings.Repeat("=", 96)
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  STATEMENT OF ACCOUNT  %s %s\n", st.CustomerCode, st.CustomerName)
	fmt.Fprintf(w, "  Period   : %s to %s\n", st.FromDate.Format(dateLayout), st.ToDate.Format(dateLayout))
	if st.Currency != "" {
		fmt.Fprintf(w, "  Currency : %s\n", st.Currency)
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %-10s %-8s %-20s %-20s %10s %10s %12s\n", "DATE", "TYPE", "DOCUMENT", "JOB", "DEBIT", "CREDIT", "BALANCE")
	fmt.Fprintln(w, strings.Repeat("-", 96))
	for _, e := range st.Entries {
		fmt.Fprintf(w, "  %-10s %-8s %-20s %-20s %10s %10s %12s\n",
			e.Date.Format(dateLayout), e.DocumentType, e.DocumentNumber, e.JobNumber,
			e.Debit.StringFixed(2), e.Credit.StringFixed(2), e.Balance.StringFixed(2))
	}
	fmt.Fprintln(w, strings.Repeat("-", 96))
	fmt.Fprintf(w, "  %-61s %10s %10s %12s\n", "TOTAL",
		st.TotalDebit.StringFixed(2), st.TotalCredit.StringFixed(2), st.NetOutstandingReceivable.StringFixed(2))
	fmt.Fprintln(w, rule)
}

func printAging(w io.Writer, res *app.AgingResult) {
	rule := strings.Repeat("=", 92)
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  AGING  %s as of %s\n", res.Kind, res.AsOf.Format(dateLayout))
	fmt.Fprintln(w, rule)
	if len(res.Rows) == 0 {
		fmt.Fprintln(w, "  No unpaid invoices.")
		fmt.Fprintln(w, rule)
		return
	}
	fmt.Fprintf(w, "  %-20s %-10s %-10s %-10s %4s %12s %12s %6s\n",
		"INVOICE", "CUSTOMER", "DATE", "DUE", "CCY", "AMOUNT", "BALANCE", "DAYS")
	fmt.Fprintln(w, strings.Repeat("-", 92))
	for _, r := range res.Rows {
		fmt.Fprintf(w, "  %-20s %-10s %-10s %-10s %4s %12s %12s %6d\n",
			r.InvoiceNumber, r.CustomerCode, r.InvoiceDate.Format(dateLayout), r.DueDate.Format(dateLayout),
			r.Currency, r.Amount.StringFixed(2), r.BalanceAmount.StringFixed(2), r.AgingDays)
	}
	fmt.Fprintln(w, strings.Repeat("-", 92))
	for _, b := range res.Buckets {
		fmt.Fprintf(w, "  %-10s %4d invoice(s) %14s\n", b.Label, b.Count, b.Balance.StringFixed(2))
	}
	fmt.Fprintf(w, "  %-10s %19s %14s\n", "TOTAL", "", res.TotalBalance.StringFixed(2))
	fmt.Fprintln(w, rule)
}

func printReferenceCounts(w io.Writer, res *app.ReferenceRefreshResult) {
	kinds := make([]string, 0, len(res.Counts))
	for k := range res.Counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-16s %5d\n", k, res.Counts[core.RefKind(k)])
	}
}

package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// Statement entry document types, in the order they sort on the same date.
const (
	EntryOpening = "Opening"
	EntryInvoice = "Invoice"
	EntryReceipt = "Receipt"
)

// StatementEntry is one row of a customer statement. Balance is the running receivable
// after this row.
type StatementEntry struct {
	Date           time.Time       `json:"date"`
	DocumentType   string          `json:"document_type"`
	DocumentNumber string          `json:"document_number"`
	JobNumber      string          `json:"job_number,omitempty"`
	Reference      string          `json:"reference,omitempty"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	Balance        decimal.Decimal `json:"balance"`
}

// Statement is a customer's receivable movements for a date range, seeded from the opening
// balance. NetOutstandingReceivable == OpeningBalance + TotalDebit - TotalCredit.
type Statement struct {
	CustomerID               int              `json:"customer_id"`
	CustomerCode             string           `json:"customer_code"`
	CustomerName             string           `json:"customer_name"`
	FromDate                 time.Time        `json:"from_date"`
	ToDate                   time.Time        `json:"to_date"`
	Currency                 string           `json:"currency"`
	OpeningBalance           decimal.Decimal  `json:"opening_balance"`
	Entries                  []StatementEntry `json:"entries"`
	TotalDebit               decimal.Decimal  `json:"total_debit"`
	TotalCredit              decimal.Decimal  `json:"total_credit"`
	NetOutstandingReceivable decimal.Decimal  `json:"net_outstanding_receivable"`
}

// AgingRow is one unpaid invoice with its age. Ages are independent per invoice.
type AgingRow struct {
	InvoiceID     int             `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Kind          InvoiceKind     `json:"kind"`
	CustomerID    int             `json:"customer_id"`
	CustomerCode  string          `json:"customer_code"`
	CustomerName  string          `json:"customer_name"`
	JobNumber     string          `json:"job_number"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	DueDate       time.Time       `json:"due_date"`
	Currency      string          `json:"currency"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
	AgingDays     int             `json:"aging_days"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
}

// AgingBucket aggregates rows whose age falls in [MinDays, MaxDays]. MaxDays < 0 is open-ended.
type AgingBucket struct {
	Label   string          `json:"label"`
	MinDays int             `json:"min_days"`
	MaxDays int             `json:"max_days"`
	Count   int             `json:"count"`
	Balance decimal.Decimal `json:"balance"`
}

// DefaultAgingBounds produce the 0-30, 31-60, 61-90 and 90+ buckets.
var DefaultAgingBounds = []int{30, 60, 90}

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService provides read-only statement and aging queries. Reads run outside any
// write transaction and may lag an in-flight settlement.
type ReportingService interface {
	// GetStatement returns sales invoices (debits) and receipts (credits) for the customer
	// dated within [fromDate, toDate], preceded by the opening balance row.
	GetStatement(ctx context.Context, customerID int, fromDate, toDate time.Time) (*Statement, error)

	// GetAgingReport lists invoices of kind with a positive balance that are not closed,
	// dated on or before asOf. customerID is optional.
	GetAgingReport(ctx context.Context, kind InvoiceKind, customerID *int, asOf time.Time) ([]AgingRow, error)
}

// ── Implementation ────────────────────────────────────────────────────────────

type reportingService struct {
	pool *pgxpool.Pool
}

// NewReportingService constructs a ReportingService backed by the given pool.
func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

// ── GetStatement ──────────────────────────────────────────────────────────────

func (s *reportingService) GetStatement(ctx context.Context, customerID int, fromDate, toDate time.Time) (*Statement, error) {
	if toDate.Before(fromDate) {
		return nil, ValidationError("invalid statement range", map[string]string{"to": "must not be before from"})
	}

	var code, name string
	err := s.pool.QueryRow(ctx, "SELECT code, name FROM customers WHERE id = $1", customerID).Scan(&code, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("customer", customerID)
		}
		return nil, fmt.Errorf("failed to read customer: %w", err)
	}

	opening := decimal.Zero
	err = s.pool.QueryRow(ctx, `
		SELECT amount FROM customer_opening_balances
		WHERE customer_id = $1 AND as_of_date <= $2
		ORDER BY as_of_date DESC LIMIT 1
	`, customerID, fromDate).Scan(&opening)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to read opening balance: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT i.invoice_date, $4::text, i.invoice_number, s.job_number, '', i.amount, 0::numeric, i.currency
		FROM invoices i JOIN shipments s ON s.id = i.shipment_id
		WHERE i.customer_id = $1 AND i.kind = 'Invoice' AND i.invoice_date BETWEEN $2 AND $3
		UNION ALL
		SELECT st.settlement_date, $5::text, st.number, s.job_number, COALESCE(st.reference, ''), 0::numeric, st.amount, i.currency
		FROM settlements st
		JOIN invoices i ON i.id = st.invoice_id
		JOIN shipments s ON s.id = i.shipment_id
		WHERE st.customer_id = $1 AND st.kind = 'Receipt' AND st.settlement_date BETWEEN $2 AND $3
	`, customerID, fromDate, toDate, EntryInvoice, EntryReceipt)
	if err != nil {
		return nil, fmt.Errorf("failed to query statement entries: %w", err)
	}
	defer rows.Close()

	var movements []StatementEntry
	currencies := map[string]bool{}
	for rows.Next() {
		var e StatementEntry
		var currency string
		if err := rows.Scan(&e.Date, &e.DocumentType, &e.DocumentNumber, &e.JobNumber, &e.Reference,
			&e.Debit, &e.Credit, &currency); err != nil {
			return nil, fmt.Errorf("failed to scan statement entry: %w", err)
		}
		currencies[currency] = true
		movements = append(movements, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query statement entries: %w", err)
	}
	if len(currencies) > 1 {
		return nil, ValidationError("statement spans more than one currency", map[string]string{
			"customer_id": "customer has invoices in several office currencies",
		})
	}

	st := BuildStatement(fromDate, opening, movements)
	st.CustomerID = customerID
	st.CustomerCode = code
	st.CustomerName = name
	st.ToDate = toDate
	for c := range currencies {
		st.Currency = c
	}
	if st.Currency == "" {
		if st.Currency, err = s.fallbackCurrency(ctx, customerID); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// fallbackCurrency labels a statement with no movements: the customer's latest sales
// invoice currency, else the first office's local currency.
func (s *reportingService) fallbackCurrency(ctx context.Context, customerID int) (string, error) {
	var currency string
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(
			(SELECT currency FROM invoices
			 WHERE customer_id = $1 AND kind = 'Invoice'
			 ORDER BY invoice_date DESC, id DESC LIMIT 1),
			(SELECT local_currency FROM offices ORDER BY id LIMIT 1),
			'')
	`, customerID).Scan(&currency)
	if err != nil {
		return "", fmt.Errorf("failed to resolve statement currency: %w", err)
	}
	return currency, nil
}

func entryRank(docType string) int {
	switch docType {
	case EntryOpening:
		return 0
	case EntryInvoice:
		return 1
	}
	return 2
}

// BuildStatement sorts movements by date, document number then debit before credit,
// prepends the opening row and fills running balances and totals.
func BuildStatement(fromDate time.Time, opening decimal.Decimal, movements []StatementEntry) *Statement {
	sorted := make([]StatementEntry, len(movements))
	copy(sorted, movements)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.DocumentNumber != b.DocumentNumber {
			return a.DocumentNumber < b.DocumentNumber
		}
		return entryRank(a.DocumentType) < entryRank(b.DocumentType)
	})

	st := &Statement{
		FromDate:       fromDate,
		OpeningBalance: opening,
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
	}
	st.Entries = append(make([]StatementEntry, 0, len(sorted)+1), StatementEntry{
		Date:           fromDate,
		DocumentType:   EntryOpening,
		DocumentNumber: "Opening Balance",
		Debit:          decimal.Zero,
		Credit:         decimal.Zero,
		Balance:        opening,
	})

	running := opening
	for _, e := range sorted {
		running = running.Add(e.Debit).Sub(e.Credit)
		e.Balance = running
		st.TotalDebit = st.TotalDebit.Add(e.Debit)
		st.TotalCredit = st.TotalCredit.Add(e.Credit)
		st.Entries = append(st.Entries, e)
	}
	st.NetOutstandingReceivable = running
	return st
}

// ── GetAgingReport ────────────────────────────────────────────────────────────

func (s *reportingService) GetAgingReport(ctx context.Context, kind InvoiceKind, customerID *int, asOf time.Time) ([]AgingRow, error) {
	if !kind.IsValid() {
		return nil, ValidationError("invalid aging request", map[string]string{"kind": "must be Invoice or PurchaseInvoice"})
	}

	query := `
		SELECT i.id, i.invoice_number, i.kind, i.customer_id, c.code, c.name, s.job_number,
			i.invoice_date, i.due_date, i.currency, i.amount, i.paid_amount
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		JOIN shipments s ON s.id = i.shipment_id
		WHERE i.kind = $1 AND i.amount > i.paid_amount AND i.payment_status <> 'Closed'
			AND i.invoice_date <= $2`
	args := []any{kind, asOf}
	if customerID != nil {
		query += " AND i.customer_id = $3"
		args = append(args, *customerID)
	}
	query += " ORDER BY c.code, i.invoice_date, i.id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query aging: %w", err)
	}
	defer rows.Close()

	var out []AgingRow
	for rows.Next() {
		var r AgingRow
		if err := rows.Scan(&r.InvoiceID, &r.InvoiceNumber, &r.Kind, &r.CustomerID, &r.CustomerCode,
			&r.CustomerName, &r.JobNumber, &r.InvoiceDate, &r.DueDate, &r.Currency, &r.Amount,
			&r.PaidAmount); err != nil {
			return nil, fmt.Errorf("failed to scan aging row: %w", err)
		}
		r.BalanceAmount = r.Amount.Sub(r.PaidAmount)
		r.AgingDays = AgingDays(r.InvoiceDate, asOf)
		r.PaymentStatus = DerivePaymentStatus(r.Amount, r.PaidAmount, r.DueDate, asOf, false)
		out = append(out, r)
	}
	return out, rows.Err()
}

// AgingDays is max(0, asOf - invoiceDate) in whole calendar days.
func AgingDays(invoiceDate, asOf time.Time) int {
	from := time.Date(invoiceDate.Year(), invoiceDate.Month(), invoiceDate.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	days := int(to.Sub(from).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// ValidateAgingBounds checks that bounds are positive and strictly ascending. Empty is valid.
func ValidateAgingBounds(bounds []int) error {
	for i, b := range bounds {
		if b <= 0 || (i > 0 && b <= bounds[i-1]) {
			return ValidationError("invalid aging buckets", map[string]string{
				"buckets": "must be positive and strictly ascending",
			})
		}
	}
	return nil
}

// ParseAgingBounds parses a comma-separated bound list such as "30,60,90".
func ParseAgingBounds(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, p := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, ValidationError("invalid aging buckets", map[string]string{
				"buckets": fmt.Sprintf("%q is not a whole number of days", p),
			})
		}
		out = append(out, n)
	}
	if err := ValidateAgingBounds(out); err != nil {
		return nil, err
	}
	return out, nil
}

// SummarizeAging buckets rows by age. bounds are ascending inclusive upper limits; a final
// open-ended bucket collects everything above the last bound.
func SummarizeAging(rows []AgingRow, bounds []int) []AgingBucket {
	if len(bounds) == 0 {
		bounds = DefaultAgingBounds
	}
	buckets := make([]AgingBucket, 0, len(bounds)+1)
	lower := 0
	for _, b := range bounds {
		buckets = append(buckets, AgingBucket{
			Label:   fmt.Sprintf("%d-%d", lower, b),
			MinDays: lower,
			MaxDays: b,
			Balance: decimal.Zero,
		})
		lower = b + 1
	}
	last := bounds[len(bounds)-1]
	buckets = append(buckets, AgingBucket{
		Label:   fmt.Sprintf("%d+", last),
		MinDays: last + 1,
		MaxDays: -1,
		Balance: decimal.Zero,
	})

	for _, r := range rows {
		for i := range buckets {
			b := &buckets[i]
			if r.AgingDays >= b.MinDays && (b.MaxDays < 0 || r.AgingDays <= b.MaxDays) {
				b.Count++
				b.Balance = b.Balance.Add(r.BalanceAmount)
				break
			}
		}
	}
	return buckets
}

package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceKind distinguishes sales invoices (sale side, receivable) from purchase invoices
// (cost side, payable).
type InvoiceKind string

const (
	KindInvoice         InvoiceKind = "Invoice"
	KindPurchaseInvoice InvoiceKind = "PurchaseInvoice"
)

func (k InvoiceKind) IsValid() bool {
	return k == KindInvoice || k == KindPurchaseInvoice
}

// invoiceSide maps an invoice kind onto the costing columns and sequences it drives.
type invoiceSide struct {
	flagColumn      string
	invoiceIDColumn string
	partyColumn     string
	numberPrefix    string
	settlement      SettlementKind
	settlePrefix    string
}

func (k InvoiceKind) side() invoiceSide {
	if k == KindPurchaseInvoice {
		return invoiceSide{
			flagColumn:      "purchase_invoiced",
			invoiceIDColumn: "purchase_invoice_id",
			partyColumn:     "vendor_party_id",
			numberPrefix:    PrefixPurchaseInvoice,
			settlement:      SettlementPayment,
			settlePrefix:    PrefixPaymentVoucher,
		}
	}
	return invoiceSide{
		flagColumn:      "sale_invoiced",
		invoiceIDColumn: "sale_invoice_id",
		partyColumn:     "bill_to_party_id",
		numberPrefix:    PrefixInvoice,
		settlement:      SettlementReceipt,
		settlePrefix:    PrefixReceipt,
	}
}

// costingSide picks the matching half of a costing line, its party and its flag state.
func (k InvoiceKind) costingSide(c Costing) (side CostingSide, partyID *int, invoiced bool, invoiceID *int) {
	if k == KindPurchaseInvoice {
		return c.Cost, c.VendorPartyID, c.PurchaseInvoiced, c.PurchaseInvoiceID
	}
	return c.Sale, c.BillToPartyID, c.SaleInvoiced, c.SaleInvoiceID
}

// PaymentStatus of an invoice. Overdue is never stored; it is derived on read.
type PaymentStatus string

const (
	StatusPending       PaymentStatus = "Pending"
	StatusPartiallyPaid PaymentStatus = "PartiallyPaid"
	StatusPaid          PaymentStatus = "Paid"
	StatusClosed        PaymentStatus = "Closed"
	StatusOverdue       PaymentStatus = "Overdue"
)

// BasePaymentStatus is the stored status derived from amount and paid alone.
func BasePaymentStatus(amount, paid decimal.Decimal, closed bool) PaymentStatus {
	switch {
	case closed:
		return StatusClosed
	case amount.Sub(paid).IsZero():
		return StatusPaid
	case paid.IsPositive():
		return StatusPartiallyPaid
	}
	return StatusPending
}

// DerivePaymentStatus is the full status rule. A positive balance past the due date is
// Overdue; the due date itself is not yet overdue.
func DerivePaymentStatus(amount, paid decimal.Decimal, dueDate, now time.Time, closed bool) PaymentStatus {
	st := BasePaymentStatus(amount, paid, closed)
	if st == StatusClosed {
		return st
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	due := time.Date(dueDate.Year(), dueDate.Month(), dueDate.Day(), 0, 0, 0, 0, time.UTC)
	if amount.Sub(paid).IsPositive() && due.Before(today) {
		return StatusOverdue
	}
	return st
}

// Invoice is a sales or purchase invoice header with its line snapshot.
type Invoice struct {
	ID            int             `json:"id"`
	Kind          InvoiceKind     `json:"kind"`
	OfficeID      int             `json:"office_id"`
	ShipmentID    int             `json:"shipment_id"`
	JobNumber     string          `json:"job_number"` // joined from shipments
	PartyID       int             `json:"party_id"`
	CustomerID    int             `json:"customer_id"`
	CustomerCode  string          `json:"customer_code"` // joined from customers
	CustomerName  string          `json:"customer_name"` // joined from customers
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	DueDate       time.Time       `json:"due_date"`
	Currency      string          `json:"currency"`
	SubTotal      decimal.Decimal `json:"sub_total"`
	TotalTax      decimal.Decimal `json:"total_tax"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Closed        bool            `json:"closed"`
	PrintURL      string          `json:"print_url,omitempty"`
	Lines         []InvoiceLine   `json:"lines"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// InvoiceLine is the frozen copy of one costing side at the time of invoicing.
type InvoiceLine struct {
	ID                int             `json:"id"`
	InvoiceID         int             `json:"invoice_id"`
	CostingID         int             `json:"costing_id"`
	LineNo            int             `json:"line_no"`
	ChargeDescription string          `json:"charge_description"`
	BasisCode         string          `json:"basis_code"`
	CurrencyCode      string          `json:"currency_code"`
	Rate              decimal.Decimal `json:"rate"`
	Qty               decimal.Decimal `json:"qty"`
	ROE               decimal.Decimal `json:"roe"`
	TaxPct            decimal.Decimal `json:"tax_pct"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	Amount            decimal.Decimal `json:"amount"` // side LCY
}

// InvoiceTotals are the header figures computed from lines.
type InvoiceTotals struct {
	SubTotal decimal.Decimal
	TotalTax decimal.Decimal
	Amount   decimal.Decimal
}

// Validate rejects totals an invoice cannot be raised for. A zero amount would be
// born settled, so the selected lines must carry value on the invoiced side.
func (t InvoiceTotals) Validate() error {
	if !t.Amount.IsPositive() {
		return ValidationError("invalid invoice", map[string]string{
			"costing_ids": "selected lines total zero on the invoiced side",
		})
	}
	return nil
}

// BuildInvoiceLines snapshots the kind's side of each costing in the given order.
func BuildInvoiceLines(kind InvoiceKind, costings []Costing) ([]InvoiceLine, InvoiceTotals) {
	lines := make([]InvoiceLine, 0, len(costings))
	totals := InvoiceTotals{SubTotal: decimal.Zero, TotalTax: decimal.Zero}
	for i, c := range costings {
		side, _, _, _ := kind.costingSide(c)
		lines = append(lines, InvoiceLine{
			CostingID:         c.ID,
			LineNo:            i + 1,
			ChargeDescription: c.ChargeDescription,
			BasisCode:         c.BasisCode,
			CurrencyCode:      side.CurrencyCode,
			Rate:              side.Unit,
			Qty:               side.Qty,
			ROE:               side.ExRate,
			TaxPct:            side.TaxPct,
			TaxAmount:         side.TaxAmount,
			Amount:            side.LCY,
		})
		totals.SubTotal = totals.SubTotal.Add(side.LCY)
		totals.TotalTax = totals.TotalTax.Add(side.TaxAmount)
	}
	totals.Amount = totals.SubTotal.Add(totals.TotalTax)
	return lines, totals
}

// GenerateInvoiceInput selects the costing lines to invoice for one party.
type GenerateInvoiceInput struct {
	Kind        InvoiceKind
	ShipmentID  int
	PartyID     int
	CostingIDs  []int
	InvoiceDate time.Time
	DueDate     *time.Time // defaults to InvoiceDate + customer credit days
}

// UpdateInvoiceInput replaces the line set of an invoice. Nil dates keep the current value.
type UpdateInvoiceInput struct {
	CostingIDs  []int
	InvoiceDate *time.Time
	DueDate     *time.Time
}

// SettlementKind is Receipt for sales invoices and Payment for purchase invoices.
type SettlementKind string

const (
	SettlementReceipt SettlementKind = "Receipt"
	SettlementPayment SettlementKind = "Payment"
)

// Settlement is a receipt or payment voucher applied to exactly one invoice.
type Settlement struct {
	ID         int             `json:"id"`
	InvoiceID  int             `json:"invoice_id"`
	CustomerID int             `json:"customer_id"`
	Kind       SettlementKind  `json:"kind"`
	Number     string          `json:"number"`
	Date       time.Time       `json:"settlement_date"`
	Amount     decimal.Decimal `json:"amount"`
	Reference  *string         `json:"reference,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type SettlementInput struct {
	Amount    decimal.Decimal
	Date      time.Time
	Reference *string
}

// ValidateSettlement checks an application of amount against an invoice's current figures.
func ValidateSettlement(in SettlementInput, invoiceAmount, paid decimal.Decimal, closed bool) error {
	fields := map[string]string{}
	if closed {
		fields["invoice_id"] = "invoice is closed"
	}
	if !in.Amount.IsPositive() {
		fields["amount"] = "must be > 0"
	} else if !in.Amount.Equal(RoundMoney(in.Amount)) {
		fields["amount"] = "must have at most 2 decimal places"
	} else if paid.Add(in.Amount).GreaterThan(invoiceAmount) {
		fields["amount"] = "exceeds balance " + invoiceAmount.Sub(paid).StringFixed(2)
	}
	if in.Date.IsZero() {
		fields["settlement_date"] = "is required"
	}
	if len(fields) > 0 {
		return ValidationError("invalid settlement", fields)
	}
	return nil
}

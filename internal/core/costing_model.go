package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SideInput is the caller-supplied half of a costing line. Derived amounts are never
// accepted from callers; ComputeCosting produces them.
type SideInput struct {
	Qty          decimal.Decimal
	Unit         decimal.Decimal // rate per basis unit, in CurrencyCode
	CurrencyCode string
	ExRate       decimal.Decimal // FCY → office LCY
	TaxPct       decimal.Decimal
}

// CostingInput is everything needed to create or replace a costing line.
type CostingInput struct {
	ChargeDescription string
	BasisCode         string
	BillToPartyID     *int
	VendorPartyID     *int
	Sale              SideInput
	Cost              SideInput
}

// CostingSide is one stored half of a costing line.
type CostingSide struct {
	Qty          decimal.Decimal `json:"qty"`
	Unit         decimal.Decimal `json:"unit"`
	CurrencyCode string          `json:"currency_code"`
	ExRate       decimal.Decimal `json:"ex_rate"`
	FCY          decimal.Decimal `json:"fcy"`
	LCY          decimal.Decimal `json:"lcy"`
	TaxPct       decimal.Decimal `json:"tax_pct"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
}

// Costing is a dual-sided charge line on a shipment.
type Costing struct {
	ID                int             `json:"id"`
	ShipmentID        int             `json:"shipment_id"`
	ChargeDescription string          `json:"charge_description"`
	BasisCode         string          `json:"basis_code"`
	BillToPartyID     *int            `json:"bill_to_party_id,omitempty"`
	VendorPartyID     *int            `json:"vendor_party_id,omitempty"`
	Sale              CostingSide     `json:"sale"`
	Cost              CostingSide     `json:"cost"`
	GP                decimal.Decimal `json:"gp"`
	SaleInvoiced      bool            `json:"sale_invoiced"`
	PurchaseInvoiced  bool            `json:"purchase_invoiced"`
	SaleInvoiceID     *int            `json:"sale_invoice_id,omitempty"`
	PurchaseInvoiceID *int            `json:"purchase_invoice_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// CostingSheet is the costing lines of one shipment with their GP summary.
type CostingSheet struct {
	ShipmentID   int             `json:"shipment_id"`
	Lines        []Costing       `json:"lines"`
	TotalSaleLCY decimal.Decimal `json:"total_sale_lcy"`
	TotalCostLCY decimal.Decimal `json:"total_cost_lcy"`
	TotalGP      decimal.Decimal `json:"total_gp"`
}

// SideAmounts are the derived figures of one side.
type SideAmounts struct {
	FCY       decimal.Decimal
	LCY       decimal.Decimal
	TaxAmount decimal.Decimal
}

// CostingAmounts are the derived figures of a costing line.
type CostingAmounts struct {
	Sale SideAmounts
	Cost SideAmounts
	GP   decimal.Decimal
}

// ComputeSide derives FCY, LCY and tax for one side. Each step rounds to two places
// before the next uses it.
func ComputeSide(in SideInput) SideAmounts {
	fcy := RoundMoney(in.Qty.Mul(in.Unit))
	lcy := RoundMoney(fcy.Mul(in.ExRate))
	tax := RoundMoney(lcy.Mul(in.TaxPct).Div(hundred))
	return SideAmounts{FCY: fcy, LCY: lcy, TaxAmount: tax}
}

// ComputeCosting derives every amount of a costing line. GP is always sale LCY minus cost LCY.
func ComputeCosting(in CostingInput) CostingAmounts {
	sale := ComputeSide(in.Sale)
	cost := ComputeSide(in.Cost)
	return CostingAmounts{Sale: sale, Cost: cost, GP: sale.LCY.Sub(cost.LCY)}
}

// Validate reports every numeric and required-field problem at once.
func (in CostingInput) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(in.ChargeDescription) == "" {
		fields["charge_description"] = "is required"
	}
	if in.BasisCode == "" {
		fields["basis_code"] = "is required"
	}
	in.Sale.validate("sale", fields)
	in.Cost.validate("cost", fields)
	if len(fields) > 0 {
		return ValidationError("invalid costing", fields)
	}
	// Inputs fit their columns; the derived amounts must fit NUMERIC(18,2) too.
	amounts := ComputeCosting(in)
	amounts.Sale.checkFits("sale", fields)
	amounts.Cost.checkFits("cost", fields)
	checkNumeric(fields, "gp", amounts.GP, 18, 2)
	if len(fields) > 0 {
		return ValidationError("invalid costing", fields)
	}
	return nil
}

func (a SideAmounts) checkFits(prefix string, fields map[string]string) {
	checkNumeric(fields, prefix+"_fcy", a.FCY, 18, 2)
	checkNumeric(fields, prefix+"_lcy", a.LCY, 18, 2)
	checkNumeric(fields, prefix+"_tax_amount", a.TaxAmount, 18, 2)
}

func (in SideInput) validate(prefix string, fields map[string]string) {
	checkNonNegative(fields, prefix+"_qty", in.Qty)
	checkNonNegative(fields, prefix+"_unit", in.Unit)
	checkNonNegative(fields, prefix+"_ex_rate", in.ExRate)
	if in.TaxPct.IsNegative() || in.TaxPct.GreaterThan(hundred) {
		fields[prefix+"_tax_pct"] = "must be between 0 and 100"
	}
	checkNumeric(fields, prefix+"_qty", in.Qty, 18, 3)
	checkNumeric(fields, prefix+"_unit", in.Unit, 18, 4)
	checkNumeric(fields, prefix+"_ex_rate", in.ExRate, 18, 6)
	checkNumeric(fields, prefix+"_tax_pct", in.TaxPct, 7, 3)
	if in.CurrencyCode == "" {
		fields[prefix+"_currency_code"] = "is required"
	}
}

func samePartyRef(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

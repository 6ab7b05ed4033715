package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// GuardResult is the outcome of a deletion check. A denied result is an expected,
// user-facing condition and is never returned as a fault.
type GuardResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() GuardResult {
	return GuardResult{Allowed: true}
}

func deny(reason string) GuardResult {
	return GuardResult{Allowed: false, Reason: reason}
}

// EvaluatePartyDeletion denies deletion while any costing bills to or is vended by the party.
func EvaluatePartyDeletion(dependentCostings int) GuardResult {
	if dependentCostings <= 0 {
		return allow()
	}
	noun := "costings"
	if dependentCostings == 1 {
		noun = "costing"
	}
	return deny(fmt.Sprintf("party is referenced by %d dependent %s; delete or reassign them first",
		dependentCostings, noun))
}

// EvaluateCostingDeletion denies deletion of a costing referenced by an invoice or purchase invoice.
func EvaluateCostingDeletion(saleInvoiced, purchaseInvoiced bool) GuardResult {
	var sides []string
	if saleInvoiced {
		sides = append(sides, "sale side is invoiced")
	}
	if purchaseInvoiced {
		sides = append(sides, "cost side is purchase-invoiced")
	}
	if len(sides) == 0 {
		return allow()
	}
	return deny("costing cannot be deleted: " + strings.Join(sides, " and ") +
		"; delete the dependent document first")
}

// EvaluateInvoiceDeletion denies deletion once any amount has been settled.
func EvaluateInvoiceDeletion(paidAmount decimal.Decimal) GuardResult {
	if paidAmount.IsZero() {
		return allow()
	}
	return deny(fmt.Sprintf("invoice has settled amount %s; reverse the settlements first",
		paidAmount.StringFixed(2)))
}

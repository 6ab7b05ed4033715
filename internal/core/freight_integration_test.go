package core_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightops/internal/core"
)

func TestShipment_JobNumberAndStatusLog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, "JOB-DXB-2026-00001", f.shipment.JobNumber)
	assert.Equal(t, core.ShipmentOpened, f.shipment.Status)

	closed, err := f.shipments.SetShipmentStatus(ctx, f.shipment.ID, core.ShipmentClosed, "docs released")
	require.NoError(t, err)
	assert.Equal(t, core.ShipmentClosed, closed.Status)

	_, err = f.shipments.SetShipmentStatus(ctx, f.shipment.ID, core.ShipmentCancelled, "")
	assert.True(t, core.IsKind(err, core.KindValidation), "closed shipments cannot be cancelled: %v", err)

	logs, err := f.shipments.ListStatusLogs(ctx, f.shipment.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Contains(t, logs[1].Description, "Closed")

	require.NoError(t, f.shipments.DeleteStatusLog(ctx, logs[1].ID))
	err = f.shipments.DeleteStatusLog(ctx, logs[1].ID)
	assert.True(t, core.IsKind(err, core.KindNotFound))
}

func TestParty_DuplicateRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.parties.AddParty(context.Background(), f.shipment.ID, 1, core.PartyDebtor)
	require.Error(t, err)
	ce, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeDuplicateParty, ce.Code)

	// Same customer under another category is a different party.
	_, err = f.parties.AddParty(context.Background(), f.shipment.ID, 1, core.PartyConsignee)
	assert.NoError(t, err)
}

func TestParty_DeletionGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Only the bill-to side references the debtor, so exactly one dependent costing.
	c, err := f.costings.AddCosting(ctx, f.shipment.ID, core.CostingInput{
		ChargeDescription: "Documentation",
		BasisCode:         "BL",
		BillToPartyID:     &f.debtor.ID,
		Sale:              core.SideInput{Qty: dec("1"), Unit: dec("150"), CurrencyCode: "AED", ExRate: dec("1")},
		Cost:              core.SideInput{CurrencyCode: "AED", ExRate: dec("1")},
	})
	require.NoError(t, err)

	res, err := f.parties.CanDeleteParty(ctx, f.debtor.ID)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Contains(t, res.Reason, "1 dependent costing")

	err = f.parties.DeleteParty(ctx, f.debtor.ID)
	assert.True(t, core.IsKind(err, core.KindGuard))

	require.NoError(t, f.costings.DeleteCosting(ctx, c.ID))

	res, err = f.parties.CanDeleteParty(ctx, f.debtor.ID)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	require.NoError(t, f.parties.DeleteParty(ctx, f.debtor.ID))
}

func TestCosting_ComputedAmountsPersisted(t *testing.T) {
	f := newFixture(t)
	c := f.addFreight(t)

	assert.True(t, dec("250.00").Equal(c.Sale.FCY))
	assert.True(t, dec("917.50").Equal(c.Sale.LCY))
	assert.True(t, dec("550.50").Equal(c.Cost.LCY))
	assert.True(t, dec("367.00").Equal(c.GP))

	sheet, err := f.costings.ListCostings(context.Background(), f.shipment.ID)
	require.NoError(t, err)
	require.Len(t, sheet.Lines, 1)
	assert.True(t, dec("367.00").Equal(sheet.TotalGP))
}

func TestCosting_UnknownCurrencyRejected(t *testing.T) {
	f := newFixture(t)
	side := usdSide("1", "1")
	side.CurrencyCode = "XXX"
	_, err := f.costings.AddCosting(context.Background(), f.shipment.ID, core.CostingInput{
		ChargeDescription: "Bad", BasisCode: "CNTR", Sale: side, Cost: usdSide("1", "1"),
	})
	ce, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeUnknownReference, ce.Code)
}

func TestCosting_DeleteGuardFollowsInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.addFreight(t)

	inv, err := f.invoices.GenerateInvoice(ctx, core.GenerateInvoiceInput{
		Kind: core.KindInvoice, ShipmentID: f.shipment.ID, PartyID: f.debtor.ID,
		CostingIDs: []int{c.ID}, InvoiceDate: day("2026-01-15"),
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-DXB-2026-00001", inv.InvoiceNumber)
	assert.True(t, dec("917.50").Equal(inv.Amount))
	assert.Equal(t, "2026-02-14", inv.DueDate.Format("2006-01-02"), "credit days default the due date")

	err = f.costings.DeleteCosting(ctx, c.ID)
	ce, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeDependentInvoiceExists, ce.Code)
	assert.Contains(t, ce.Message, "sale side")

	require.NoError(t, f.invoices.DeleteInvoice(ctx, inv.ID))

	got, err := f.costings.GetCosting(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.SaleInvoiced)
	assert.Nil(t, got.SaleInvoiceID)

	require.NoError(t, f.costings.DeleteCosting(ctx, c.ID))
}

func TestInvoice_ConcurrentGenerationOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.addFreight(t)
	b := f.addFreight(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	sets := [][]int{{a.ID, b.ID}, {b.ID}}
	for i := range sets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.invoices.GenerateInvoice(ctx, core.GenerateInvoiceInput{
				Kind: core.KindInvoice, ShipmentID: f.shipment.ID, PartyID: f.debtor.ID,
				CostingIDs: sets[i], InvoiceDate: day("2026-01-15"),
			})
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case core.IsKind(err, core.KindConflict):
			conflicts++
			ce, _ := core.AsError(err)
			assert.True(t, ce.Retryable())
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	var lines, invoices int
	require.NoError(t, f.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM invoice_lines WHERE costing_id = $1", b.ID).Scan(&lines))
	require.NoError(t, f.pool.QueryRow(ctx, "SELECT COUNT(*) FROM invoices").Scan(&invoices))
	assert.Equal(t, 1, lines, "costing must be snapshotted exactly once")
	assert.Equal(t, 1, invoices)
}

func TestInvoice_PurchaseSideIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.addFreight(t)

	sale, err := f.invoices.GenerateInvoice(ctx, core.GenerateInvoiceInput{
		Kind: core.KindInvoice, ShipmentID: f.shipment.ID, PartyID: f.debtor.ID,
		CostingIDs: []int{c.ID}, InvoiceDate: day("2026-01-15"),
	})
	require.NoError(t, err)

	// Wrong party for the cost side.
	_, err = f.invoices.GenerateInvoice(ctx, core.GenerateInvoiceInput{
		Kind: core.KindPurchaseInvoice, ShipmentID: f.shipment.ID, PartyID: f.debtor.ID,
		CostingIDs: []int{c.ID}, InvoiceDate: day("2026-01-15"),
	})
	assert.True(t, core.IsKind(err, core.KindValidation))

	pi, err := f.invoices.GenerateInvoice(ctx, core.GenerateInvoiceInput{
		Kind: core.KindPurchaseInvoice, ShipmentID: f.shipment.ID, PartyID: f.creditor.ID,
		CostingIDs: []int{c.ID}, InvoiceDate: day("2026-01-16"),
	})
	require.NoError(t, err)
	assert.Equal(t, "PI-DXB-2026-00001", pi.InvoiceNumber)
	assert.True(t, dec("550.50").Equal(pi.Amount))

	got, err := f.costings.GetCosting(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.SaleInvoiced)
	assert.True(t, got.PurchaseInvoiced)
	assert.Equal(t, sale.ID, *got.SaleInvoiceID)
	assert.Equal(t, pi.ID, *got.PurchaseInvoiceID)

	// Editing the invoiced line leaves the snapshot alone and keeps parties.
	in := core.CostingInput{
		ChargeDescription: "Ocean Freight", BasisCode: "CNTR",
		BillToPartyID: &f.debtor.ID, VendorPartyID: &f.creditor.ID,
		Sale: usdSide("10", "30.00"), Cost: usdSide("10", "15.00"),
	}
	_, err = f.costings.UpdateCosting(ctx, c.ID, in)
	require.NoError(t, err)
	after, err := f.invoices.GetInvoice(ctx, sale.ID)
	require.NoError(t, err)
	assert.True(t, dec("917.50").Equal(after.Amount))

	in.BillToPartyID = nil
	_, err = f.costings.UpdateCosting(ctx, c.ID, in)
	assert.True(t, core.IsKind(err, core.KindValidation))
}

func TestInvoice_UpdateSwapsLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.addFreight(t)
	b := f.addFreight(t)

	inv, err := f.invoices.GenerateInvoice(ctx, core.GenerateInvoiceInput{
		Kind: core.KindInvoice, ShipmentID: f.shipment.ID, PartyID: f.debtor.ID,
		CostingIDs: []int{a.ID}, InvoiceDate: day("2026-01-15"),
	})
	require.NoError(t, err)

	updated, err := f.invoices.UpdateInvoice(ctx, inv.ID, core.UpdateInvoiceInput{CostingIDs: []int{a.ID, b.ID}})
	require.NoError(t, err)
	assert.Len(t, updated.Lines, 2)
	assert.True(t, dec("1835.00").Equal(updated.Amount))
	assert.Equal(t, inv.InvoiceNumber, updated.InvoiceNumber)

	updated, err = f.invoices.UpdateInvoice(ctx, inv.ID, core.UpdateInvoiceInput{CostingIDs: []int{b.ID}})
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, b.ID, updated.Lines[0].CostingID)

	gotA, err := f.costings.GetCosting(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, gotA.SaleInvoiced, "removed line is released")
}

func TestSettlement_ReceiptsAndStatement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 100 x 10.00 AED = 1000.00 invoice
	c, err := f.costings.AddCosting(ctx, f.shipment.ID, core.CostingInput{
		ChargeDescription: "Clearance", BasisCode: "LS", BillToPartyID: &f.debtor.ID,
		Sale: core.SideInput{Qty: dec("100"), Unit: dec("10"), CurrencyCode: "AED", ExRate: dec("1")},
		Cost: core.SideInput{CurrencyCode: "AED", ExRate: dec("1")},
	})
	require.NoError(t, err)

	inv, err := f.invoices.GenerateInvoice(ctx, core.GenerateInvoiceInput{
		Kind: core.KindInvoice, ShipmentID: f.shipment.ID, PartyID: f.debtor.ID,
		CostingIDs: []int{c.ID}, InvoiceDate: day("2026-01-15"),
	})
	require.NoError(t, err)
	require.True(t, dec("1000.00").Equal(inv.Amount))

	r1, err := f.invoices.ApplySettlement(ctx, inv.ID, core.SettlementInput{Amount: dec("400.00"), Date: day("2026-01-20")})
	require.NoError(t, err)
	assert.Equal(t, "RCT-DXB-2026-00001", r1.Number)

	res, err := f.invoices.CanDeleteInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	_, err = f.invoices.ApplySettlement(ctx, inv.ID, core.SettlementInput{Amount: dec("600.01"), Date: day("2026-01-21")})
	assert.True(t, core.IsKind(err, core.KindValidation))

	_, err = f.invoices.ApplySettlement(ctx, inv.ID, core.SettlementInput{Amount: dec("600.00"), Date: day("2026-01-25")})
	require.NoError(t, err)

	got, err := f.invoices.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, dec("1000.00").Equal(got.PaidAmount))
	assert.True(t, got.BalanceAmount.IsZero())
	assert.True(t, got.Amount.Equal(got.BalanceAmount.Add(got.PaidAmount)))
	assert.Equal(t, core.StatusPaid, got.PaymentStatus)

	err = f.invoices.DeleteInvoice(ctx, inv.ID)
	ce, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeInvoiceHasPayments, ce.Code)

	_, err = f.pool.Exec(ctx, "INSERT INTO customer_opening_balances (customer_id, as_of_date, amount) VALUES (1, '2025-12-31', 250.00)")
	require.NoError(t, err)

	st, err := f.reports.GetStatement(ctx, 1, day("2026-01-01"), day("2026-01-31"))
	require.NoError(t, err)
	assert.Equal(t, "AED", st.Currency)
	require.Len(t, st.Entries, 4)
	assert.True(t, dec("250.00").Equal(st.OpeningBalance))
	assert.True(t, dec("1000.00").Equal(st.TotalDebit))
	assert.True(t, dec("1000.00").Equal(st.TotalCredit))
	assert.True(t, dec("250.00").Equal(st.NetOutstandingReceivable))

	aging, err := f.reports.GetAgingReport(ctx, core.KindInvoice, nil, day("2026-02-28"))
	require.NoError(t, err)
	assert.Empty(t, aging, "paid invoices drop out of aging")
}

func TestInvoice_CloseBlocksEditsAndAging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.addFreight(t)

	inv, err := f.invoices.GenerateInvoice(ctx, core.GenerateInvoiceInput{
		Kind: core.KindInvoice, ShipmentID: f.shipment.ID, PartyID: f.debtor.ID,
		CostingIDs: []int{c.ID}, InvoiceDate: day("2026-01-15"),
	})
	require.NoError(t, err)

	aging, err := f.reports.GetAgingReport(ctx, core.KindInvoice, &f.debtor.CustomerID, day("2026-03-01"))
	require.NoError(t, err)
	require.Len(t, aging, 1)
	assert.Equal(t, 45, aging[0].AgingDays)
	assert.Equal(t, core.StatusOverdue, aging[0].PaymentStatus)

	closed, err := f.invoices.CloseInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusClosed, closed.PaymentStatus)

	_, err = f.invoices.UpdateInvoice(ctx, inv.ID, core.UpdateInvoiceInput{CostingIDs: []int{c.ID}})
	assert.True(t, core.IsKind(err, core.KindValidation))

	aging, err = f.reports.GetAgingReport(ctx, core.KindInvoice, nil, day("2026-03-01"))
	require.NoError(t, err)
	assert.Empty(t, aging)
}

func TestShipment_CancelBlockedWhileInvoiced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.addFreight(t)

	_, err := f.invoices.GenerateInvoice(ctx, core.GenerateInvoiceInput{
		Kind: core.KindInvoice, ShipmentID: f.shipment.ID, PartyID: f.debtor.ID,
		CostingIDs: []int{c.ID}, InvoiceDate: day("2026-01-15"),
	})
	require.NoError(t, err)

	_, err = f.shipments.SetShipmentStatus(ctx, f.shipment.ID, core.ShipmentCancelled, "")
	assert.True(t, core.IsKind(err, core.KindGuard))
}

func TestCargo_ContainersAndCargoLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cargo.AddContainer(ctx, f.shipment.ID, core.ContainerInput{
		ContainerNo: "MSCU1234565", ContainerTypeCode: "45XX",
	})
	ce, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeUnknownReference, ce.Code)

	cntr, err := f.cargo.AddContainer(ctx, f.shipment.ID, core.ContainerInput{
		ContainerNo:       "MSCU1234565",
		ContainerTypeCode: "40HC",
		GrossWeight:       dec("12500"),
		NetWeight:         dec("11800"),
		VolumeCBM:         dec("67.5"),
		PackageCount:      20,
	})
	require.NoError(t, err)

	cargo, err := f.cargo.AddCargo(ctx, f.shipment.ID, core.CargoInput{
		Description:     "Auto spare parts",
		PackageTypeCode: "PLT",
		PackageCount:    20,
		GrossWeight:     dec("12500"),
		VolumeCBM:       dec("67.5"),
	})
	require.NoError(t, err)

	containers, err := f.cargo.ListContainers(ctx, f.shipment.ID)
	require.NoError(t, err)
	require.Len(t, containers, 1)
	assert.Equal(t, "40HC", containers[0].ContainerTypeCode)

	// Physical records delete unconditionally, even with invoiced costings on the job.
	c := f.addFreight(t)
	_, err = f.invoices.GenerateInvoice(ctx, core.GenerateInvoiceInput{
		Kind: core.KindInvoice, ShipmentID: f.shipment.ID, PartyID: f.debtor.ID,
		CostingIDs: []int{c.ID}, InvoiceDate: day("2026-01-15"),
	})
	require.NoError(t, err)

	require.NoError(t, f.cargo.DeleteContainer(ctx, cntr.ID))
	require.NoError(t, f.cargo.DeleteCargo(ctx, cargo.ID))
	lines, err := f.cargo.ListCargo(ctx, f.shipment.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCosting_ExcessScaleRejectedBeforeInsert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.costings.AddCosting(ctx, f.shipment.ID, core.CostingInput{
		ChargeDescription: "Sample", BasisCode: "KG",
		Sale: core.SideInput{Qty: dec("0.0004"), Unit: dec("100"), CurrencyCode: "AED", ExRate: dec("1")},
		Cost: core.SideInput{CurrencyCode: "AED", ExRate: dec("1")},
	})
	ce, ok := core.AsError(err)
	require.True(t, ok, "err %v", err)
	assert.Equal(t, core.CodeValidation, ce.Code)
	assert.Contains(t, ce.Fields, "sale_qty")

	sheet, err := f.costings.ListCostings(ctx, f.shipment.ID)
	require.NoError(t, err)
	assert.Empty(t, sheet.Lines)
}

func TestInvoice_ZeroAmountRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.costings.AddCosting(ctx, f.shipment.ID, core.CostingInput{
		ChargeDescription: "Waived Handling", BasisCode: "LS", BillToPartyID: &f.debtor.ID,
		Sale: core.SideInput{CurrencyCode: "AED", ExRate: dec("1")},
		Cost: core.SideInput{CurrencyCode: "AED", ExRate: dec("1")},
	})
	require.NoError(t, err)

	_, err = f.invoices.GenerateInvoice(ctx, core.GenerateInvoiceInput{
		Kind: core.KindInvoice, ShipmentID: f.shipment.ID, PartyID: f.debtor.ID,
		CostingIDs: []int{c.ID}, InvoiceDate: day("2026-01-15"),
	})
	ce, ok := core.AsError(err)
	require.True(t, ok, "err %v", err)
	assert.Equal(t, core.CodeValidation, ce.Code)
	assert.Contains(t, ce.Fields, "costing_ids")

	var n int
	require.NoError(t, f.pool.QueryRow(ctx, "SELECT COUNT(*) FROM invoices").Scan(&n))
	assert.Zero(t, n)
	res, err := f.costings.CanDeleteCosting(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "a rejected invoice must not flag its lines")
}

func TestStatement_CurrencyWithoutMovements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("falls back to office currency", func(t *testing.T) {
		st, err := f.reports.GetStatement(ctx, 2, day("2026-01-01"), day("2026-01-31"))
		require.NoError(t, err)
		require.Len(t, st.Entries, 1, "opening row only")
		assert.Equal(t, "AED", st.Currency)
	})

	t.Run("uses the latest invoice currency", func(t *testing.T) {
		c := f.addFreight(t)
		_, err := f.invoices.GenerateInvoice(ctx, core.GenerateInvoiceInput{
			Kind: core.KindInvoice, ShipmentID: f.shipment.ID, PartyID: f.debtor.ID,
			CostingIDs: []int{c.ID}, InvoiceDate: day("2026-01-15"),
		})
		require.NoError(t, err)

		st, err := f.reports.GetStatement(ctx, 1, day("2026-03-01"), day("2026-03-31"))
		require.NoError(t, err)
		require.Len(t, st.Entries, 1)
		assert.Equal(t, "AED", st.Currency)
	})
}

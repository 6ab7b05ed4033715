package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"freightops/internal/adapters/export"
	"freightops/internal/app"
	"freightops/internal/core"
)

// customerFlag accepts a numeric id or a customer code.
func customerFlag(v string) (int, string) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, ""
	}
	return 0, v
}

func newStatementCommand() *cobra.Command {
	var customer, from, to, format string
	cmd := &cobra.Command{
		Use:   "statement",
		Short: "Print a customer statement of account",
		Example: `  freightops statement --customer ACME --from 2026-01-01 --to 2026-03-31
  freightops statement --customer 1 --from 2026-01-01 --to 2026-03-31 --format csv > acme.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			rt, err := openRuntime(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			id, code := customerFlag(customer)
			st, err := rt.svc.GetStatement(cmd.Context(), app.StatementRequest{
				CustomerID:   id,
				CustomerCode: code,
				From:         from,
				To:           to,
			})
			if err != nil {
				return err
			}
			if format == "csv" {
				return export.WriteStatementCSV(cmd.OutOrStdout(), st)
			}
			printStatement(cmd.OutOrStdout(), st)
			return nil
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "customer id or code")
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table or csv")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newAgingCommand() *cobra.Command {
	var customer, kind, asOf, buckets, format string
	cmd := &cobra.Command{
		Use:   "aging",
		Short: "Print unpaid invoices by age with bucket totals",
		Example: `  freightops aging
  freightops aging --kind PurchaseInvoice --as-of 2026-03-31 --buckets 15,30,60`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			bounds, err := core.ParseAgingBounds(buckets)
			if err != nil {
				return err
			}
			rt, err := openRuntime(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			req := app.AgingRequest{Kind: kind, AsOf: asOf, Buckets: bounds}
			if customer != "" {
				req.CustomerID, req.CustomerCode = customerFlag(customer)
			}
			res, err := rt.svc.GetAgingReport(cmd.Context(), req)
			if err != nil {
				return err
			}
			if format == "csv" {
				return export.WriteAgingCSV(cmd.OutOrStdout(), res.Rows)
			}
			printAging(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "customer id or code (default all)")
	cmd.Flags().StringVar(&kind, "kind", string(core.KindInvoice), "Invoice or PurchaseInvoice")
	cmd.Flags().StringVar(&asOf, "as-of", "", "aging date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&buckets, "buckets", "", "ascending day bounds, e.g. 30,60,90")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table or csv")
	return cmd
}

func newRefreshReferenceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-reference",
		Short: "Reload reference lists and print their sizes",
		Long: `Reloads currencies, units, ports, container and package types and incoterms.
A running server keeps its own cache; use POST /api/reference/refresh for that.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.svc.RefreshReference(cmd.Context())
			if err != nil {
				return err
			}
			printReferenceCounts(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func checkFormat(format string) error {
	switch format {
	case "table", "csv":
		return nil
	}
	return core.ValidationError("invalid output format", map[string]string{"format": "must be table or csv"})
}

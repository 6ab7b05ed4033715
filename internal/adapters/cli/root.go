// Package cli is the cobra command tree for the freightops binary.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"freightops/internal/logging"
)

var version = "0.1.0"

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "freightops",
		Short: "Shipment costing, invoicing and receivable reconciliation",
		Long: `freightops manages freight forwarding jobs: per-shipment costing sheets,
sales and purchase invoices generated from costing lines, receipts and
payments, customer statements and aging.

Configuration is read from the environment and an optional .env file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newStatementCommand(),
		newAgingCommand(),
		newRefreshReferenceCommand(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute(ctx context.Context) {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		logger := logging.WithComponent("cli")
		logger.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

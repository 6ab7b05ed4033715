package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"freightops/internal/db"
)

func newMigrateCommand() *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, logger, pool, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if !statusOnly {
				if err := db.Migrate(ctx, pool); err != nil {
					return err
				}
			}
			v, err := db.MigrationVersion(ctx, pool)
			if err != nil {
				return err
			}
			logger.Info().Int64("version", v).Bool("applied", !statusOnly).Msg("schema version")
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "only print the current schema version")
	return cmd
}

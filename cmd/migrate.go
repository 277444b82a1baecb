package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/table-bot/internal/migrate"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			ctx := context.Background()

			d, err := openDatabase(ctx, cfg, log, false)
			if err != nil {
				return err
			}
			defer d.Close()

			if dryRun {
				pending, err := migrate.Pending(ctx, d)
				if err != nil {
					return err
				}
				for _, m := range pending {
					fmt.Fprintln(cmd.OutOrStdout(), m.Version)
				}
				return nil
			}

			applied, err := migrate.Up(ctx, d, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(applied))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list pending migrations without applying them")
	return cmd
}

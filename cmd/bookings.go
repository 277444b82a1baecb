package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/table-bot/internal/bookings"
)

func newBookingsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Inspect confirmed reservations",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List the most recent bookings",
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

			bs, err := bookings.NewRepo(d).ListRecent(ctx, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIME\tPEOPLE\tNAME\tCREATED\tPUBLISHED")
			for _, b := range bs {
				published := "-"
				if b.PublishedAt != nil {
					published = b.PublishedAt.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
					b.ID, b.Time, b.PartySize, b.FullName, b.CreatedAt.Format("2006-01-02 15:04"), published)
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum number of bookings to show")

	cmd.AddCommand(list)
	return cmd
}

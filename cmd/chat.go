package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/example/table-bot/internal/console"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the bot from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(opts)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			d, err := openDatabase(ctx, cfg, log, false)
			if err != nil {
				return err
			}
			if d != nil {
				defer d.Close()
			}

			store, err := buildStore(ctx, cfg, d, log)
			if err != nil {
				return err
			}
			defer store.Close()

			b, err := buildBot(cfg, store, d, nil, log)
			if err != nil {
				return err
			}

			err = console.Run(ctx, b, cmd.InOrStdin(), cmd.OutOrStdout(), log)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

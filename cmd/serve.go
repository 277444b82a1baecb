package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/securecookie"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/table-bot/internal/auth"
	"github.com/example/table-bot/internal/bookings"
	"github.com/example/table-bot/internal/events"
	"github.com/example/table-bot/internal/relay"
	"github.com/example/table-bot/internal/telemetry"
	"github.com/example/table-bot/internal/web"
)

const botID = "tablebot"

func newServeCmd(opts *rootOptions) *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		Short:   "Run the bot's HTTP channel and web chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(opts)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := openDatabase(ctx, cfg, log, migrateUp)
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

			reg := newRegistry()
			b, err := buildBot(cfg, store, d, telemetry.New(reg), log)
			if err != nil {
				return err
			}

			if d != nil && cfg.NATS.URL != "" {
				pub, err := events.NewNATS(cfg.NATS.URL, log)
				if err != nil {
					return err
				}
				defer pub.Close()
				r := &relay.Relay{
					Source:    bookings.NewRepo(d),
					Publisher: pub,
					Interval:  cfg.Relay.Interval,
					BatchSize: cfg.Relay.BatchSize,
					Log:       log.With(zap.String("component", "relay")),
				}
				go func() {
					if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
						log.Error("relay stopped", zap.Error(err))
					}
				}()
			} else if cfg.NATS.URL != "" {
				log.Warn("nats configured without DATABASE_URL; booking events disabled")
			}

			hashKey, blockKey := cfg.CookieHashKey, cfg.CookieBlockKey
			if len(hashKey) == 0 {
				log.Warn("COOKIE_HASH_KEY not set; web chat sessions will not survive a restart")
				hashKey = securecookie.GenerateRandomKey(32)
				if len(blockKey) == 0 {
					blockKey = securecookie.GenerateRandomKey(32)
				}
			}

			ws := &web.Server{
				Bot:      b,
				Sessions: auth.NewSessions(hashKey, blockKey),
				Channel:  auth.ChannelAuth{SecretHash: cfg.Channel.SecretHash},
				State:    store,
				Gatherer: reg,
				Log:      log.With(zap.String("component", "web")),
				BotID:    botID,
				BotName:  "Fridai",
			}
			return web.Start(ctx, cfg.ListenAddr, ws.Routes(), log)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")

	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}

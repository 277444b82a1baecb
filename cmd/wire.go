package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/example/table-bot/internal/answerer"
	"github.com/example/table-bot/internal/bookings"
	"github.com/example/table-bot/internal/bot"
	"github.com/example/table-bot/internal/config"
	"github.com/example/table-bot/internal/db"
	"github.com/example/table-bot/internal/logging"
	"github.com/example/table-bot/internal/migrate"
	"github.com/example/table-bot/internal/recognizer"
	"github.com/example/table-bot/internal/speech"
	"github.com/example/table-bot/internal/state"
	"github.com/example/table-bot/internal/telemetry"
)

func loadConfig(opts *rootOptions) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

// openDatabase returns nil when no DATABASE_URL is configured.
func openDatabase(ctx context.Context, cfg config.Config, log *zap.Logger, migrateUp bool) (*db.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := d.Ping(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if migrateUp {
		if _, err := migrate.Up(ctx, d, log); err != nil {
			d.Close()
			return nil, err
		}
	}
	return d, nil
}

func buildStore(ctx context.Context, cfg config.Config, d *db.DB, log *zap.Logger) (state.Store, error) {
	log = log.With(zap.String("component", "state"))
	switch cfg.Store.Driver {
	case "redis":
		return state.NewRedis(ctx, cfg.Store.RedisURL, cfg.Store.TTL, log)
	case "postgres":
		if d == nil {
			return nil, fmt.Errorf("store.driver postgres requires DATABASE_URL")
		}
		return state.NewPostgres(d), nil
	case "sqlite":
		return state.NewSQLite(ctx, cfg.Store.SQLitePath)
	default:
		return state.NewMemory(cfg.Store.TTL, log), nil
	}
}

func buildRecognizer(cfg config.Config, log *zap.Logger) (recognizer.Recognizer, error) {
	rc := cfg.Recognizer
	if rc.Driver == "luis" {
		return recognizer.NewLUIS(rc.Endpoint, rc.AppID, rc.Key, rc.Timeout, log), nil
	}
	var intents []recognizer.IntentKeywords
	if rc.IntentsFile != "" {
		var err error
		if intents, err = recognizer.LoadKeywords(rc.IntentsFile); err != nil {
			return nil, err
		}
	}
	return recognizer.NewKeyword(intents, nil), nil
}

func buildAnswerer(cfg config.Config, log *zap.Logger) (answerer.Answerer, error) {
	ac := cfg.Answerer
	if ac.Driver == "qnamaker" {
		return answerer.NewQnAMaker(answerer.QnAMakerOptions{
			Host:            ac.Host,
			KnowledgeBaseID: ac.KnowledgeBaseID,
			EndpointKey:     ac.EndpointKey,
			Top:             ac.Top,
			ScoreThreshold:  ac.ScoreThreshold,
			Timeout:         ac.Timeout,
		}, log), nil
	}
	entries := answerer.DefaultEntries
	if ac.FAQFile != "" {
		var err error
		if entries, err = answerer.LoadFAQ(ac.FAQFile); err != nil {
			return nil, err
		}
	}
	return answerer.NewStatic(entries, ac.ScoreThreshold), nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func buildBot(cfg config.Config, store state.Store, d *db.DB, metrics *telemetry.Metrics, log *zap.Logger) (*bot.Bot, error) {
	rec, err := buildRecognizer(cfg, log)
	if err != nil {
		return nil, err
	}
	ans, err := buildAnswerer(cfg, log)
	if err != nil {
		return nil, err
	}

	var recorder bookings.Recorder = bookings.LogRecorder{Log: log}
	if d != nil {
		recorder = bookings.NewRepo(d)
	}

	return bot.New(bot.Config{
		Store:      store,
		Recognizer: rec,
		Answerer:   ans,
		Speaker:    speech.New(cfg.Speech.VoiceFont, cfg.Speech.Language),
		Recorder:   recorder,
		Metrics:    metrics,
		Log:        log,
		Threshold:  cfg.Recognizer.Threshold,
		Site:       cfg.Site,
	}), nil
}

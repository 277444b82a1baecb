package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr  string `mapstructure:"listen_addr"`
	BaseURL     string `mapstructure:"base_url"`
	DatabaseURL string `mapstructure:"database_url"`
	// Site is the base URL the specialty images are served from.
	Site string `mapstructure:"site"`

	Log        LogConfig        `mapstructure:"log"`
	Store      StoreConfig      `mapstructure:"store"`
	Recognizer RecognizerConfig `mapstructure:"recognizer"`
	Answerer   AnswererConfig   `mapstructure:"answerer"`
	Speech     SpeechConfig     `mapstructure:"speech"`
	Channel    ChannelConfig    `mapstructure:"channel"`
	Cookie     CookieConfig     `mapstructure:"cookie"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Relay      RelayConfig      `mapstructure:"relay"`

	CookieHashKey  []byte `mapstructure:"-"`
	CookieBlockKey []byte `mapstructure:"-"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StoreConfig struct {
	// Driver is one of memory, redis, postgres, sqlite.
	Driver     string        `mapstructure:"driver"`
	RedisURL   string        `mapstructure:"redis_url"`
	SQLitePath string        `mapstructure:"sqlite_path"`
	TTL        time.Duration `mapstructure:"ttl"`
}

type RecognizerConfig struct {
	// Driver is keyword or luis.
	Driver      string        `mapstructure:"driver"`
	Endpoint    string        `mapstructure:"endpoint"`
	AppID       string        `mapstructure:"app_id"`
	Key         string        `mapstructure:"key"`
	IntentsFile string        `mapstructure:"intents_file"`
	Threshold   float64       `mapstructure:"threshold"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type AnswererConfig struct {
	// Driver is static or qnamaker.
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	KnowledgeBaseID string        `mapstructure:"knowledge_base_id"`
	EndpointKey     string        `mapstructure:"endpoint_key"`
	FAQFile         string        `mapstructure:"faq_file"`
	Top             int           `mapstructure:"top"`
	ScoreThreshold  float64       `mapstructure:"score_threshold"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type SpeechConfig struct {
	VoiceFont string `mapstructure:"voice_font"`
	Language  string `mapstructure:"language"`
}

type ChannelConfig struct {
	// SecretHash is a bcrypt hash of the bearer secret channels must send.
	SecretHash string `mapstructure:"secret_hash"`
}

type CookieConfig struct {
	HashKey  string `mapstructure:"hash_key"`
	BlockKey string `mapstructure:"block_key"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type RelayConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("database_url", "")
	v.SetDefault("site", "http://localhost:8080/static")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.redis_url", "redis://localhost:6379/0")
	v.SetDefault("store.sqlite_path", "data/tablebot.db")
	v.SetDefault("store.ttl", "24h")

	v.SetDefault("recognizer.driver", "keyword")
	v.SetDefault("recognizer.endpoint", "")
	v.SetDefault("recognizer.app_id", "")
	v.SetDefault("recognizer.key", "")
	v.SetDefault("recognizer.intents_file", "")
	v.SetDefault("recognizer.threshold", 0.5)
	v.SetDefault("recognizer.timeout", "10s")

	v.SetDefault("answerer.driver", "static")
	v.SetDefault("answerer.host", "")
	v.SetDefault("answerer.knowledge_base_id", "")
	v.SetDefault("answerer.endpoint_key", "")
	v.SetDefault("answerer.faq_file", "")
	v.SetDefault("answerer.top", 1)
	v.SetDefault("answerer.score_threshold", 0.3)
	v.SetDefault("answerer.timeout", "10s")

	v.SetDefault("speech.voice_font", "JessaRUS")
	v.SetDefault("speech.language", "en-US")

	v.SetDefault("channel.secret_hash", "")
	v.SetDefault("cookie.hash_key", "")
	v.SetDefault("cookie.block_key", "")
	v.SetDefault("nats.url", "")
	v.SetDefault("relay.interval", "5s")
	v.SetDefault("relay.batch_size", 25)
}

// Load reads configuration from an optional YAML file and the environment.
// Environment variables use the TABLEBOT_ prefix with dots replaced by
// underscores (TABLEBOT_STORE_DRIVER); a few common names are also accepted
// without the prefix.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TABLEBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("listen_addr", "LISTEN_ADDR", "TABLEBOT_LISTEN_ADDR")
	_ = v.BindEnv("base_url", "BASE_URL", "TABLEBOT_BASE_URL")
	_ = v.BindEnv("database_url", "DATABASE_URL", "TABLEBOT_DATABASE_URL")
	_ = v.BindEnv("store.redis_url", "REDIS_URL", "TABLEBOT_STORE_REDIS_URL")
	_ = v.BindEnv("nats.url", "NATS_URL", "TABLEBOT_NATS_URL")
	_ = v.BindEnv("cookie.hash_key", "COOKIE_HASH_KEY", "TABLEBOT_COOKIE_HASH_KEY")
	_ = v.BindEnv("cookie.block_key", "COOKIE_BLOCK_KEY", "TABLEBOT_COOKIE_BLOCK_KEY")
	_ = v.BindEnv("log.level", "LOG_LEVEL", "TABLEBOT_LOG_LEVEL")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("tablebot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	var err error
	if cfg.Cookie.HashKey != "" {
		if cfg.CookieHashKey, err = decodeB64(cfg.Cookie.HashKey); err != nil {
			return Config{}, fmt.Errorf("COOKIE_HASH_KEY: %w", err)
		}
	}
	if cfg.Cookie.BlockKey != "" {
		if cfg.CookieBlockKey, err = decodeB64(cfg.Cookie.BlockKey); err != nil {
			return Config{}, fmt.Errorf("COOKIE_BLOCK_KEY: %w", err)
		}
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "redis", "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("store.driver postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}

	switch c.Recognizer.Driver {
	case "keyword":
	case "luis":
		if c.Recognizer.Endpoint == "" || c.Recognizer.AppID == "" {
			return fmt.Errorf("recognizer.driver luis requires endpoint and app_id")
		}
	default:
		return fmt.Errorf("unknown recognizer.driver %q", c.Recognizer.Driver)
	}
	if c.Recognizer.Threshold < 0 || c.Recognizer.Threshold >= 1 {
		return fmt.Errorf("recognizer.threshold must be in [0,1)")
	}

	switch c.Answerer.Driver {
	case "static":
	case "qnamaker":
		if c.Answerer.Host == "" || c.Answerer.KnowledgeBaseID == "" {
			return fmt.Errorf("answerer.driver qnamaker requires host and knowledge_base_id")
		}
	default:
		return fmt.Errorf("unknown answerer.driver %q", c.Answerer.Driver)
	}

	if len(c.CookieHashKey) > 0 && len(c.CookieHashKey) < 32 {
		return fmt.Errorf("COOKIE_HASH_KEY must be at least 32 bytes")
	}
	switch len(c.CookieBlockKey) {
	case 0, 16, 24, 32:
	default:
		return fmt.Errorf("COOKIE_BLOCK_KEY must be 16, 24 or 32 bytes")
	}
	return nil
}

// decodeB64 accepts a base64 value or a path to a file holding one, for
// secret mounts.
func decodeB64(s string) ([]byte, error) {
	if b, err := os.ReadFile(s); err == nil {
		s = string(b)
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}

package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Dart   DartConfig   `yaml:"dart" mapstructure:"dart"`
	Kafka  KafkaConfig  `yaml:"kafka" mapstructure:"kafka"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// DartConfig configures the DART open-API client.
type DartConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second
}

// KafkaConfig configures the event bus.
type KafkaConfig struct {
	Brokers []string    `yaml:"brokers" mapstructure:"brokers"`
	GroupID string      `yaml:"group_id" mapstructure:"group_id"`
	Workers int         `yaml:"workers" mapstructure:"workers"` // partitions handled at once
	Topics  TopicConfig `yaml:"topics" mapstructure:"topics"`
}

// TopicConfig names the logical topics.
type TopicConfig struct {
	PartnerEvents   string `yaml:"partner_events" mapstructure:"partner_events"`
	PartnerRestored string `yaml:"partner_restored" mapstructure:"partner_restored"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DARTSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("dart.base_url", "https://opendart.fss.or.kr")
	v.SetDefault("dart.timeout_secs", 30)
	v.SetDefault("dart.rate_limit", 10.0)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.group_id", "dart-sync")
	v.SetDefault("kafka.workers", 3)
	v.SetDefault("kafka.topics.partner_events", "partner-company-events")
	v.SetDefault("kafka.topics.partner_restored", "partner-company-restored")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration required by the given command
// mode is present. Modes: serve, consume, corpsync, migrate.
func (c *Config) Validate(mode string) error {
	var problems []string

	requireDB := func() {
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
		if c.Store.Driver != "postgres" && c.Store.Driver != "sqlite" {
			problems = append(problems, "store.driver must be postgres or sqlite")
		}
	}

	switch mode {
	case "serve":
		requireDB()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "consume":
		requireDB()
		if len(c.Kafka.Brokers) == 0 {
			problems = append(problems, "kafka.brokers is required")
		}
		if c.Kafka.Workers < 1 || c.Kafka.Workers > 64 {
			problems = append(problems, "kafka.workers must be between 1 and 64")
		}
	case "corpsync", "migrate":
		requireDB()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Dart.RateLimit <= 0 {
		problems = append(problems, "dart.rate_limit must be > 0")
	}
	if c.Dart.TimeoutSecs <= 0 {
		problems = append(problems, "dart.timeout_secs must be > 0")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/esg-suite/dart-sync/internal/config"
	"github.com/esg-suite/dart-sync/internal/dart"
	"github.com/esg-suite/dart-sync/internal/partner"
	"github.com/esg-suite/dart-sync/internal/store"
)

// openStore picks the backend from config. SQLite serves single-node and
// development deployments; postgres everything else.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
		})
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func newDartClient(cfg *config.Config) dart.Client {
	return dart.NewClient(cfg.Dart.APIKey,
		dart.WithBaseURL(cfg.Dart.BaseURL),
		dart.WithTimeout(time.Duration(cfg.Dart.TimeoutSecs)*time.Second),
		dart.WithRateLimit(cfg.Dart.RateLimit),
	)
}

func busTopics(cfg *config.Config) partner.Topics {
	return partner.Topics{
		Events:   cfg.Kafka.Topics.PartnerEvents,
		Restored: cfg.Kafka.Topics.PartnerRestored,
	}
}

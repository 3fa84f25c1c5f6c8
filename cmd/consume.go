package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/esg-suite/dart-sync/internal/bus"
	"github.com/esg-suite/dart-sync/internal/ingest"
	"github.com/esg-suite/dart-sync/internal/store"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Consume partner events and sync disclosure data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("consume"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		var syncLog ingest.SyncLogger
		if ps, ok := st.(*store.PostgresStore); ok {
			syncLog = ingest.NewDBSyncLogger(ps.Pool())
		}

		coordinator := ingest.NewCoordinator(newDartClient(cfg), st, syncLog)

		kb := bus.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Workers)
		defer kb.Close()

		topics := []string{cfg.Kafka.Topics.PartnerEvents}
		zap.L().Info("consuming partner events",
			zap.Strings("topics", topics),
			zap.String("group_id", cfg.Kafka.GroupID),
			zap.Int("workers", cfg.Kafka.Workers))

		return kb.Subscribe(ctx, topics, coordinator.HandleMessage)
	},
}

func init() {
	rootCmd.AddCommand(consumeCmd)
}

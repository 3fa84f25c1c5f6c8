package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/esg-suite/dart-sync/internal/ingest"
)

var corpsyncFile string

var corpsyncCmd = &cobra.Command{
	Use:   "corpsync",
	Short: "Refresh the corp-code directory from the bulk archive",
	Long:  "Downloads the full corp-code ZIP dump and upserts every entry. Use --file to load a previously downloaded archive instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("corpsync"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		ds := ingest.NewDirectorySync(newDartClient(cfg), st, nil)

		var n int64
		if corpsyncFile != "" {
			n, err = ds.RunFromFile(ctx, corpsyncFile)
		} else {
			n, err = ds.Run(ctx)
		}
		if err != nil {
			return err
		}

		zap.L().Info("corp code directory sync complete", zap.Int64("entries", n))
		return nil
	},
}

func init() {
	corpsyncCmd.Flags().StringVar(&corpsyncFile, "file", "", "load a local archive instead of downloading")
	rootCmd.AddCommand(corpsyncCmd)
}

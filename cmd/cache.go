package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pubmetrics/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Maintain the publication metadata cache",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired cached metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("prune"); err != nil {
			return err
		}

		cache, err := store.Open(ctx, cfg.Cache.Driver, cfg.Cache.DatabaseURL)
		if err != nil {
			return err
		}
		defer cache.Close() //nolint:errcheck

		n, err := cache.DeleteExpired(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("cache pruned", zap.String("driver", cfg.Cache.Driver), zap.Int("deleted", n))
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired records\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

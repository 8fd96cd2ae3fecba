package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pubmetrics/internal/enrich"
	"github.com/sells-group/pubmetrics/internal/metrics"
)

var (
	fetchRoster string
	fetchClaims string
	fetchOut    string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch Scopus metadata into a dump usable by run --offline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("fetch"); err != nil {
			return err
		}

		roster, claims, err := readInputs(fetchRoster, fetchClaims)
		if err != nil {
			return err
		}
		ids := metrics.CollectScopusIDs(roster, claims)
		if len(ids) == 0 {
			return eris.Wrap(metrics.ErrNoIdentifiers, "fetch")
		}

		env, err := initSource(ctx, cfg, "")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Source.Fetch(ctx, ids, logProgress(25))
		if err != nil {
			return err
		}
		if err := enrich.SaveDump(fetchOut, res.Records); err != nil {
			return err
		}

		zap.L().Info("metadata dump written",
			zap.String("path", fetchOut),
			zap.Int("requested", res.Requested),
			zap.Int("records", len(res.Records)),
			zap.Int("cached", res.Cached),
			zap.Int("failed", res.Failed),
		)
		fmt.Fprintln(cmd.OutOrStdout(), fetchOut)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchRoster, "roster", "", "faculty roster file (csv or xlsx)")
	fetchCmd.Flags().StringVar(&fetchClaims, "claims", "", "optional publication claims file")
	fetchCmd.Flags().StringVar(&fetchOut, "out", "metadata.json", "dump output path")
	_ = fetchCmd.MarkFlagRequired("roster")
	rootCmd.AddCommand(fetchCmd)
}

package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pubmetrics/internal/metrics"
	"github.com/sells-group/pubmetrics/internal/model"
	"github.com/sells-group/pubmetrics/internal/report"
)

var (
	runRoster       string
	runClaims       string
	runStart        string
	runEnd          string
	runAcademicYear int
	runOut          string
	runFormat       string
	runOffline      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute faculty summary and publication assignment tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mode := "run"
		if runOffline != "" {
			mode = "offline"
		}
		if err := cfg.Validate(mode); err != nil {
			return err
		}
		if !report.ValidFormat(runFormat) {
			return eris.Errorf("unknown --format %q (csv, xlsx or json)", runFormat)
		}

		window, err := resolveWindow(cfg.Window, runStart, runEnd, runAcademicYear)
		if err != nil {
			return err
		}
		policy, err := loadPolicy(cfg.PolicyFile)
		if err != nil {
			return err
		}
		roster, claims, err := readInputs(runRoster, runClaims)
		if err != nil {
			return err
		}

		env, err := initSource(ctx, cfg, runOffline)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := metrics.Run(ctx, metrics.Input{
			Roster:   roster,
			Claims:   claims,
			Window:   window,
			Policy:   policy,
			Source:   env.Source,
			Progress: logProgress(25),
		})
		if err != nil {
			return err
		}

		paths, err := report.WriteFiles(runOut, runFormat, res)
		if err != nil {
			return err
		}

		zap.L().Info("metrics written",
			zap.String("run_id", res.RunID),
			zap.Strings("files", paths),
			zap.Int("faculty", len(res.Summaries)),
			zap.Int("fetch_failed", res.Fetch.Failed),
		)
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

// readInputs loads the roster and, when claimsPath is set, the claims table.
func readInputs(rosterPath, claimsPath string) ([]model.FacultyRecord, []model.ClaimRecord, error) {
	rosterTable, err := report.ReadFile(rosterPath)
	if err != nil {
		return nil, nil, err
	}
	roster, err := report.ParseRoster(rosterTable)
	if err != nil {
		return nil, nil, err
	}
	if claimsPath == "" {
		return roster, nil, nil
	}
	claimsTable, err := report.ReadFile(claimsPath)
	if err != nil {
		return nil, nil, err
	}
	claims, err := report.ParseClaims(claimsTable)
	if err != nil {
		return nil, nil, err
	}
	return roster, claims, nil
}

func init() {
	runCmd.Flags().StringVar(&runRoster, "roster", "", "faculty roster file (csv or xlsx)")
	runCmd.Flags().StringVar(&runClaims, "claims", "", "publication claims file (csv or xlsx)")
	runCmd.Flags().StringVar(&runStart, "start", "", "window start YYYY-MM-DD (default from config)")
	runCmd.Flags().StringVar(&runEnd, "end", "", "window end YYYY-MM-DD, inclusive (default from config)")
	runCmd.Flags().IntVar(&runAcademicYear, "academic-year", 0, "academic year starting July 1 of this year")
	runCmd.Flags().StringVar(&runOut, "out", ".", "output directory")
	runCmd.Flags().StringVar(&runFormat, "format", report.FormatCSV, "output format: csv, xlsx or json")
	runCmd.Flags().StringVar(&runOffline, "offline", "", "metadata dump from `fetch` to use instead of Scopus")
	_ = runCmd.MarkFlagRequired("roster")
	_ = runCmd.MarkFlagRequired("claims")
	rootCmd.AddCommand(runCmd)
}

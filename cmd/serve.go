package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pubmetrics/internal/api"
	"github.com/sells-group/pubmetrics/internal/metrics"
)

var (
	servePort    int
	serveOffline string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the metrics HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mode := "serve"
		if serveOffline != "" {
			mode = "offline"
		}
		if err := cfg.Validate(mode); err != nil {
			return err
		}

		window, err := metrics.ParseWindow(cfg.Window.Start, cfg.Window.End)
		if err != nil {
			return eris.Wrap(err, "config window")
		}
		policy, err := loadPolicy(cfg.PolicyFile)
		if err != nil {
			return err
		}

		env, err := initSource(ctx, cfg, serveOffline)
		if err != nil {
			return err
		}
		defer env.Close()

		server := api.NewServer(env.Source,
			api.WithPolicy(policy),
			api.WithDefaultWindow(window),
			api.WithAllowedOrigins(cfg.Server.AllowedOrigins),
			api.WithMaxUpload(int64(cfg.Server.MaxUploadMB)<<20),
		)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           server.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveOffline, "offline", "", "serve from a metadata dump instead of Scopus")
	rootCmd.AddCommand(serveCmd)
}

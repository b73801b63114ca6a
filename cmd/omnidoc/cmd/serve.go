package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve exposes analysis runs over HTTP: POST /api/v1/runs launches an
analysis synchronously, and the runs collection serves the archive.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	runner, store, err := buildRunner(cfg, false, false)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	srv := api.NewServer(runner, store,
		api.WithLogger(logger),
		api.WithDefaultRepo(cfg.GitHub.Repo),
		api.WithAllowedOrigins(cfg.Server.AllowedOrigins),
	)

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Settings are captured at startup; a changed file needs a restart.
	viper.OnConfigChange(func(e fsnotify.Event) {
		logger.Warn("config file changed, restart to apply", "file", e.Name)
	})
	viper.WatchConfig()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

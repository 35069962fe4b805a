package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ppiankov/wayfare/internal/api"
	"github.com/ppiankov/wayfare/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serveAddr    string
	serveNarrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ranking API over HTTP",
	Long: `Serve exposes the ranking engine as a JSON API and keeps exchange rates
fresh in the background.

Endpoints:
  GET  /health
  GET  /metrics
  POST /v1/query      compile a brief for one domain
  POST /v1/rank       rank offers for one domain
  POST /v1/rank/all   rank several domains in parallel
  POST /v1/convert    convert an amount
  POST /v1/display    format a price for display
  GET  /v1/rates      current rate snapshot

Example:
  wayfare serve --addr :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.address)")
	serveCmd.Flags().BoolVar(&serveNarrate, "narrate", false, "attach LLM narration to every ranking")
}

func runServe(cmd *cobra.Command, args []string) error {
	collector := metrics.NewCollector()
	a, err := newApp(collector)
	if err != nil {
		return err
	}
	defer a.close()

	p, err := a.pipeline(serveNarrate, 0)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go a.refresher.Run(ctx)

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.Server.Address
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(p, a.normalizer, collector, a.logger.Named("api")).Routes(),
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", zap.String("addr", addr), zap.String("rate_source", a.source.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

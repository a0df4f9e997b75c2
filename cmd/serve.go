package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/virtos/api/simulate"
	"github.com/kilianp07/virtos/app"
	"github.com/kilianp07/virtos/infra/logger"
	"github.com/kilianp07/virtos/infra/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the simulation API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New("server")
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Errorf("service close: %v", err)
		}
	}()

	mux := simulate.Routes(svc, cfg.Server.Token)
	if cfg.Server.PrometheusAddress == "" {
		mux.Handle("/metrics", metrics.Handler(nil))
	}
	srv := &http.Server{Addr: cfg.Server.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("serving api on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	if addr := cfg.Server.PrometheusAddress; addr != "" {
		g.Go(func() error { return metrics.StartPromServer(gctx, addr) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/danpasecinic/spindle"
	"github.com/danpasecinic/spindle/internal/observability"
)

const shutdownTimeout = 5 * time.Second

type serveOpts struct {
	addr   string
	cwd    string
	stores storeFlags
}

func (c *CLI) newServeCmd() *cobra.Command {
	opts := serveOpts{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve resolver metrics, health and debug endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":9090", "listen address")
	cmd.Flags().StringVarP(&opts.cwd, "dir", "d", ".", "working directory holding the cache")
	addStoreFlags(cmd, &opts.stores)
	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts serveOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	b, err := c.newBuilder(cfg, opts.stores)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := observability.NewCollector(reg)
	if err != nil {
		return err
	}

	r, err := c.newRuntime(ctx, cfg, b, opts.cwd, spindle.WithResolveObserver(collector.Hook()))
	if err != nil {
		return err
	}

	if err := r.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           observability.NewRouter(r, reg, c.zapLogger()).Setup(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving", "addr", opts.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	return multierr.Combine(srv.Shutdown(shutdownCtx), r.Stop(shutdownCtx))
}

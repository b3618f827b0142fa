package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/petrijr/flowtree/internal/inbox"
	"github.com/petrijr/flowtree/pkg/metrics"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr     string
	Workflow string
	Store    string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a demo workflow behind an HTTP API",
		Long: `Serve starts a demo workflow tree and exposes it over HTTP:

  GET  /rendering       current rendering as JSON
  POST /events/{name}   invoke an event handler (?arg= or {"arg": ...})
  GET  /snapshot        current tree snapshot
  GET  /metrics         Prometheus metrics`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "address to listen on")
	cmd.Flags().StringVarP(&opts.Workflow, "workflow", "w", "", "registered workflow to serve")
	cmd.Flags().StringVar(&opts.Store, "store", "", "snapshot store (memory|sqlite|redis|postgres|mongo)")

	return cmd
}

func serve(ctx context.Context, cmd *cobra.Command, opts *ServeOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	if opts.Workflow != "" {
		cfg.Workflow = opts.Workflow
	}
	if opts.Store != "" {
		cfg.Store.Kind = opts.Store
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	collector, err := metrics.NewCollector(reg, "")
	if err != nil {
		return err
	}

	s, err := startSession(cmd.Context(), cfg, logger, collector)
	if err != nil {
		return err
	}
	defer s.close()

	pumpCtx, stopPump := context.WithCancel(cmd.Context())
	defer stopPump()
	go func() {
		if err := inbox.Pump(pumpCtx, s.inbox, deliver(s.rt), logger); err != nil {
			logger.Error("inbox_pump_failed", slog.Any("error", err))
		}
	}()

	srv := &http.Server{
		Addr:    opts.Addr,
		Handler: NewHandler(s.rt, s.inbox, reg, logger),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server_started", slog.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-s.rt.Done():
		logger.Error("runtime_stopped", slog.Any("error", s.rt.Err()))
	case <-ctx.Done():
		logger.Info("shutdown_requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful_shutdown_failed", slog.Any("error", err))
		return srv.Close()
	}
	return s.rt.Err()
}

package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/raysh454/trimetric/internal/app"
	"github.com/raysh454/trimetric/internal/logging"
	"github.com/raysh454/trimetric/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(rt *env) *cobra.Command {
	d := app.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the TriMetric HTTP API against the configured database.

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.serve(cmd.Context())
		},
	}
	cmd.Flags().String("listen", d.Listen, "address the API listens on")
	cmd.Flags().Int("max-connections", d.MaxConnections, "concurrent connections accepted (0 for no limit)")
	_ = rt.v.BindPFlags(cmd.Flags())
	return cmd
}

func (rt *env) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", rt.cfg.Listen)
	if err != nil {
		return err
	}
	return rt.serveOn(ctx, ln)
}

// serveOn runs the API on ln until ctx is done.
func (rt *env) serveOn(ctx context.Context, ln net.Listener) error {
	logger := rt.logger
	application, err := app.NewApplication(ctx, rt.cfg, logger)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() {
		if err := application.Shutdown(); err != nil {
			logger.Warn("application shutdown failed", logging.Err(err))
		}
	}()

	srv, err := server.NewServer(server.Config{
		ListenAddr: rt.cfg.Listen,
		Metrics:    application.Metrics,
		Logger:     logger,
	}, application.Orch)
	if err != nil {
		_ = ln.Close()
		return err
	}
	if rt.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, rt.cfg.MaxConnections)
	}
	httpSrv := srv.HTTPServer()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", logging.Field{Key: "addr", Value: ln.Addr().String()})
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

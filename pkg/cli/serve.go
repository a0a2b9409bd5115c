package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/routemock/pkg/engine"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown.
const shutdownTimeout = 30 * time.Second

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals struct {
	addr         string
	pollInterval time.Duration
	strict       bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the route files and reload them when they change",
	Example: `  # Serve the files listed in routemock.yaml
  routemock serve

  # Serve a single file on another port, keeping old routes on a bad edit
  routemock serve --routes api.yaml --addr :3000 --silent

  # Also reload when fixture data changes
  routemock serve --routes api.yaml --watch fixtures/`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlagVals.addr, "addr", "", "Listen address (default :4280)")
	f.DurationVar(&serveFlagVals.pollInterval, "poll-interval", 0, "File polling interval (default 500ms)")
	f.BoolVar(&serveFlagVals.strict, "strict", false, "Reject duplicate method and pattern pairs")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if serveFlagVals.addr != "" {
		cfg.Server.Addr = serveFlagVals.addr
	}
	if serveFlagVals.pollInterval > 0 {
		cfg.PollInterval = serveFlagVals.pollInterval
	}
	if cmd.Flags().Changed("strict") {
		cfg.Server.Strict = serveFlagVals.strict
	}

	log := newLogger(cmd, cfg)
	eng, err := engine.New(cfg, engine.WithLogger(log))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.Start(); err != nil {
		return fmt.Errorf("initial route load failed: %w", err)
	}

	srv := eng.NewHTTPServer()
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}
	log.Info("listening", "addr", ln.Addr().String(), "admin", cfg.Server.AdminPrefix)
	fmt.Fprintf(cmd.OutOrStdout(), "routemock listening on %s\n", ln.Addr())

	errCh := make(chan error, 2)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()
	go func() {
		errCh <- eng.Run(ctx)
	}()

	runErr := <-errCh
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
	log.Info("stopped")
	return runErr
}

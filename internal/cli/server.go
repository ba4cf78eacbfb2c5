package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LeJamon/goAssetLock/internal/core/escrow"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the escrow server",
	Long: `Start the assetlockd server which provides:
- HTTP JSON-RPC API on /
- WebSocket event stream on /ws
- Health check on /health

This is the default command when no subcommand is specified.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Set server as the default command
	rootCmd.RunE = runServer
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := newNode(ctx, cfg, escrow.SystemClock{}, logger, rootCmd.Version)
	if err != nil {
		return err
	}
	defer n.Close()

	mux := http.NewServeMux()
	mux.Handle("/", n.rpc.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"assetlockd"}`))
	})

	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if !quiet {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Starting goAssetLock escrow server")
		fmt.Fprintln(out, "==================================")
		fmt.Fprintf(out, "  - HTTP JSON-RPC: %s/\n", cfg.Server.URL())
		fmt.Fprintf(out, "  - WebSocket:     %s/ws\n", cfg.Server.URL())
		fmt.Fprintf(out, "  - Health Check:  %s/health\n", cfg.Server.URL())
		fmt.Fprintf(out, "  - Storage:       %s (%s)\n", cfg.Database.Backend, cfg.Database.Path)
		fmt.Fprintf(out, "  - Vault:         %s\n", n.ledger.Vault())
		fmt.Fprintf(out, "  - Window:        %s\n", n.ledger.WithdrawalWindow())
		fmt.Fprintln(out)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")
		n.rpc.Hub().Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

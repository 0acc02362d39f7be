package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/drillrun/runwiz/internal/logger"
	"github.com/drillrun/runwiz/internal/masterdata/devserver"
)

var devserverFlags struct {
	addr string
	seed string
}

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Serve a local master-data and submission API",
	Long: `Run an in-memory master-data API for development and demos. Option lists
and taken run numbers come from a YAML seed file, or a built-in sample when
none is given. Submitted runs are kept in memory until the server stops.`,
	RunE: runDevserver,
}

func init() {
	devserverCmd.Flags().StringVar(&devserverFlags.addr, "addr", "", "Listen address (default from config: 127.0.0.1:8080)")
	devserverCmd.Flags().StringVar(&devserverFlags.seed, "seed", "", "YAML seed file")
}

func runDevserver(cmd *cobra.Command, args []string) error {
	addr := cfg.DevServerAddr
	if devserverFlags.addr != "" {
		addr = devserverFlags.addr
	}
	seedPath := cfg.DevServerSeed
	if devserverFlags.seed != "" {
		seedPath = devserverFlags.seed
	}

	seed := devserver.DefaultSeed()
	if seedPath != "" {
		loaded, err := devserver.LoadSeed(seedPath)
		if err != nil {
			return err
		}
		seed = loaded
	}

	srv := devserver.New(devserver.NewStore(seed))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(addr) }()
	fmt.Printf("Dev API listening on http://%s/api\n", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("dev server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down dev server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Printf("Received %d run(s).\n", len(srv.Store().Runs()))
	return nil
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/drillrun/runwiz/internal/logger"
	"github.com/drillrun/runwiz/internal/mcpserver"
	"github.com/drillrun/runwiz/internal/wizard"
)

var mcpFlags struct {
	http    string
	offline bool
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Drive the run wizard over MCP",
	Long: `Expose the run wizard as MCP tools so an agent can fill in, review and
submit a run. The tools share the saved draft with 'runwiz new'.

Serves over stdio by default; use --http to serve streamable HTTP instead.`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpFlags.http, "http", "", "Serve streamable HTTP on this address instead of stdio (e.g. 127.0.0.1:0)")
	mcpCmd.Flags().BoolVar(&mcpFlags.offline, "offline", false, "Write submissions to the local outbox instead of the API")
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.close(); err != nil {
			logger.Warn("Closing draft store: %v", err)
		}
	}()

	host := wizard.NewHost(sess.ctrl)
	go func() {
		if err := host.Run(ctx); err != nil {
			logger.Debug("Wizard host stopped: %v", err)
		}
	}()
	if err := host.Do(ctx, func(c *wizard.Controller) (tea.Cmd, error) {
		return c.Initialize(nil), nil
	}); err != nil {
		return err
	}

	sub, err := sess.submitter(mcpFlags.offline)
	if err != nil {
		return err
	}
	srv := mcpserver.New(host, sub)

	if mcpFlags.http == "" {
		return srv.ServeStdio()
	}

	port, err := srv.Start(mcpFlags.http)
	if err != nil {
		return err
	}
	defer func() { _ = srv.Stop() }()
	logger.Info("MCP server on port %d", port)
	fmt.Printf("MCP endpoint: %s\n", srv.URL())

	<-ctx.Done()
	return nil
}

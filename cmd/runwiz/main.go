package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/drillrun/runwiz/internal/config"
	"github.com/drillrun/runwiz/internal/logger"
	"github.com/drillrun/runwiz/internal/tui/theme"
)

const (
	logoText1 = "█▀█ █ █ █▄ █ █ █ █ █ ▀█"
	logoText2 = "█▀▄ █▄█ █ ▀█ ▀▄▀▄▀ █ █▄"
)

// Version set via ldflags during build
var version = "dev"

// cfg is loaded before every command runs.
var cfg *config.Config

var rootFlags struct {
	dataDir      string
	draftBackend string
	apiURL       string
	logLevel     string
	logFile      string
}

func main() {
	// Ensure logger is closed on exit
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "runwiz",
	Short:             "Step-by-step entry of drilling run records",
	PersistentPreRunE: loadConfig,
}

// renderLogo creates the logo with gradient colors
func renderLogo() string {
	t := theme.NewCatppuccinMocha()
	line1 := theme.ApplyGradient(logoText1, t.Primary, t.Secondary)
	line2 := theme.ApplyGradient(logoText2, t.Primary, t.Secondary)
	return strings.Join([]string{line1, line2}, "\n")
}

func init() {
	rootCmd.Long = renderLogo() + `

runwiz walks you through entering a drilling run: run details, location,
depth interval, survey and tie-on. Dependent selections are loaded from the
master-data API, derived values are computed as you type, and the draft is
saved continuously so an interrupted entry picks up where it left off.`

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.dataDir, "data-dir", "", "Data directory for drafts (default from config: .runwiz)")
	pf.StringVar(&rootFlags.draftBackend, "draft-backend", "", "Draft store: file, nats, sqlite or memory")
	pf.StringVar(&rootFlags.apiURL, "api-url", "", "Master-data and submission API base URL")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&rootFlags.logFile, "log-file", "", "Write logs to this file")

	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(devserverCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(setupCmd)
}

// loadConfig applies flags over the loaded configuration.
func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		loaded.DataDir = rootFlags.dataDir
	}
	if flags.Changed("draft-backend") {
		loaded.DraftBackend = rootFlags.draftBackend
	}
	if flags.Changed("api-url") {
		loaded.APIURL = rootFlags.apiURL
	}
	if flags.Changed("log-level") {
		loaded.LogLevel = rootFlags.logLevel
	}
	if flags.Changed("log-file") {
		loaded.LogFile = rootFlags.logFile
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	if err := logger.Configure(loaded.LogLevel, loaded.LogFile); err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	cfg = loaded
	return nil
}

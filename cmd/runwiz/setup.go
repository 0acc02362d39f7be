package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/drillrun/runwiz/internal/config"
)

var setupFlags struct {
	project bool
	force   bool
	apiURL  string
	backend string
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create runwiz configuration file",
	Long: `Create a runwiz configuration file with sensible defaults.

By default, creates a global config at ~/.config/runwiz/runwiz.yml.
Use --project to create a project-local config in the current directory.`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVarP(&setupFlags.project, "project", "p", false, "Create config in current directory instead of global location")
	setupCmd.Flags().BoolVarP(&setupFlags.force, "force", "f", false, "Overwrite existing config file")
	setupCmd.Flags().StringVar(&setupFlags.apiURL, "api", "", "API base URL to record")
	setupCmd.Flags().StringVar(&setupFlags.backend, "backend", "", "Draft backend to record: file, nats, sqlite or memory")
}

func runSetup(cmd *cobra.Command, args []string) error {
	targetPath := config.GlobalPath()
	if setupFlags.project {
		targetPath = config.ProjectPath()
	}

	if !setupFlags.force && fileExists(targetPath) {
		return fmt.Errorf("config file already exists at %s\n\nUse --force to overwrite", targetPath)
	}

	out := config.Default()
	if setupFlags.apiURL != "" {
		out.APIURL = setupFlags.apiURL
	}
	if setupFlags.backend != "" {
		out.DraftBackend = setupFlags.backend
	}
	if err := out.Validate(); err != nil {
		return err
	}

	var err error
	if setupFlags.project {
		err = config.WriteProject(out)
	} else {
		err = config.WriteGlobal(out)
	}
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Config written to: %s\n\n", targetPath)
	fmt.Println("Run 'runwiz devserver' in one terminal and 'runwiz new' in another to get started.")
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

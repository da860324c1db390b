package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/polydev/polyd/internal/cli/output"
	"github.com/polydev/polyd/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the polyd configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  polyd config validate

  # Validate specific config file
  polyd config validate --config /etc/polyd/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	// Load and validate configuration
	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	// Determine path for display
	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string

	// A wildcard bind exposes the completion API beyond the local machine
	if cfg.Server.Host == "0.0.0.0" || cfg.Server.Host == "::" {
		warnings = append(warnings, "server bound to all interfaces - completion API will be reachable from the network")
	}

	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	return output.SimpleTable(os.Stdout, [][2]string{
		{"Listen address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)},
		{"Log level", cfg.Logging.Level},
		{"Metrics", fmt.Sprintf("%v", cfg.Metrics.Enabled)},
	})
}

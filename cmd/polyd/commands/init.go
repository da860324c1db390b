package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polydev/polyd/internal/cli/prompt"
	"github.com/polydev/polyd/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample polyd configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/polyd/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  polyd init

  # Initialize with custom path
  polyd init --config /etc/polyd/config.yaml

  # Force overwrite existing config
  polyd init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	// Ask before clobbering an existing file unless --force was given
	if !initForce {
		existing := configFile
		if existing == "" {
			existing = config.GetDefaultConfigPath()
		}
		if fileExists(existing) {
			ok, err := prompt.Confirm(fmt.Sprintf("Overwrite existing config at %s?", existing), false)
			if err != nil {
				if prompt.IsAborted(err) {
					return nil
				}
				return err
			}
			if !ok {
				return nil
			}
			initForce = true
		}
	}

	var configPath string
	var err error

	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the daemon with: polyd serve")
	fmt.Printf("  3. Or specify custom config: polyd serve --config %s\n", configPath)

	return nil
}

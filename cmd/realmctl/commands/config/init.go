package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/realmctl/cmd/realmctl/cmdutil"
	"github.com/marmos91/realmctl/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	Long: `Write the default configuration to --config, or to
$XDG_CONFIG_HOME/realmctl/config.yaml.

Examples:
  realmctl config init
  realmctl config init --config /etc/realmctl/config.yaml --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, exists := cmdutil.Flags.ConfigFile, false
		if path == "" {
			path, exists = config.GetDefaultConfigPath(), config.DefaultConfigExists()
		} else if _, err := os.Stat(path); err == nil {
			exists = true
		}
		if exists && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := config.SaveConfig(config.GetDefaultConfig(), path); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
}

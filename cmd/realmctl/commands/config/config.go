// Package config implements the realmctl config subcommands.
package config

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for configuration management.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Manage realmctl configuration",
	Long: `Inspect, validate and generate the realmctl configuration file.

The configuration is read from --config, else
$XDG_CONFIG_HOME/realmctl/config.yaml, else /etc/realmctl/config.yaml.
Every setting can be overridden with a REALMCTL_<SECTION>_<KEY>
environment variable.`,
}

func init() {
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(schemaCmd)
	Cmd.AddCommand(initCmd)
}

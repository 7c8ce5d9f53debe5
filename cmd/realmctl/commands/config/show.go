package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/realmctl/cmd/realmctl/cmdutil"
	"github.com/marmos91/realmctl/internal/cli/output"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Print the configuration after defaults and environment overrides are
applied.

Examples:
  realmctl config show
  realmctl config show -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cmdutil.LoadConfig()
		if err != nil {
			return err
		}

		format, err := cmdutil.GetOutputFormatParsed()
		if err != nil {
			return err
		}
		if format == output.FormatJSON {
			return output.PrintJSON(cmd.OutOrStdout(), cfg)
		}
		return output.PrintYAML(cmd.OutOrStdout(), cfg)
	},
}

package config

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/marmos91/realmctl/cmd/realmctl/cmdutil"
	"github.com/marmos91/realmctl/pkg/auth/kerberos"
	"github.com/marmos91/realmctl/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the realmctl configuration file.

Checks for syntax errors and invalid values, then warns about settings
that will fail at run time.

Examples:
  # Validate default config
  realmctl config validate

  # Validate specific config file
  realmctl config validate --config /etc/realmctl/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	displayPath := cmdutil.Flags.ConfigFile
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if warnings := runtimeWarnings(cfg); len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Bus:             %s\n", cfg.Bus.Type)
	_, _ = fmt.Fprintf(out, "  Call timeout:    %s\n", cfg.Operation.CallTimeout)
	_, _ = fmt.Fprintf(out, "  Credential mode: %s\n", cfg.Credential.Mode)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)

	return nil
}

// runtimeWarnings reports settings that load fine but will not work on
// this machine.
func runtimeWarnings(cfg *config.Config) []string {
	var warnings []string

	if cfg.Credential.Mode == config.CredentialModeCache {
		if _, err := exec.LookPath(cfg.Credential.KinitCommand); err != nil {
			warnings = append(warnings, fmt.Sprintf("kinit command %q not found", cfg.Credential.KinitCommand))
		}
		krb5, err := kerberos.LoadKrb5Conf(cfg.Credential.Krb5Conf)
		if err != nil {
			warnings = append(warnings, err.Error())
		} else if krb5.LibDefaults.DefaultRealm == "" {
			warnings = append(warnings, "krb5.conf has no default_realm; give users as user@REALM")
		}
	}

	if cfg.Operation.CancelAfter > cfg.Operation.CallTimeout {
		warnings = append(warnings, "cancel_after exceeds call_timeout and will never fire")
	}

	return warnings
}

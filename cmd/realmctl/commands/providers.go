package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/realmctl/cmd/realmctl/cmdutil"
	"github.com/marmos91/realmctl/pkg/realmd"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the realm providers registered with the service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := cmdutil.NewSession(ctx, Version)
		if err != nil {
			return err
		}
		defer s.Close(ctx)

		providers, err := realmd.Providers(ctx, s.Conn)
		if err != nil {
			return err
		}
		return s.Printer.Print(providerList(providers))
	},
}

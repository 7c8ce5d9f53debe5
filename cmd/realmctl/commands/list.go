package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/realmctl/cmd/realmctl/cmdutil"
	"github.com/marmos91/realmctl/pkg/realmd"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled realms",
	Long: `List the realms this machine is enrolled in, as known to the realm
service. No discovery is run.

Examples:
  # Realms this machine is a member of
  realmctl list

  # Include realms discovered earlier but not joined
  realmctl list --all -o table`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Show realms that are not configured too")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := cmdutil.NewSession(ctx, Version)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	refs, err := realmd.KnownRealms(ctx, s.Conn)
	if err != nil {
		return err
	}

	infos := make(realmList, 0, len(refs))
	for _, ref := range refs {
		info, err := realmd.DescribeRealm(ctx, s.Conn, ref)
		if err != nil {
			return err
		}
		if info.Enrolled || listAll {
			infos = append(infos, info)
		}
	}
	return s.Printer.Print(infos)
}

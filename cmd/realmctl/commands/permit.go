package commands

import (
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/realmctl/cmd/realmctl/cmdutil"
	"github.com/marmos91/realmctl/internal/cli/output"
	"github.com/marmos91/realmctl/pkg/realmd"
)

var permitCmd = &cobra.Command{
	Use:   "permit <realm> <login>...",
	Short: "Allow logins on an enrolled realm",
	Long: `Add logins to the permitted logins of an enrolled realm.

Logins may be given as separate arguments or comma separated.

Examples:
  realmctl permit example.com alice bob
  realmctl permit example.com alice,bob`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChangeLogins(cmd, args, true)
	},
}

var denyCmd = &cobra.Command{
	Use:   "deny <realm> <login>...",
	Short: "Remove logins from an enrolled realm",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChangeLogins(cmd, args, false)
	},
}

// loginChange is the result of permit and deny.
type loginChange struct {
	Realm    string   `json:"realm" yaml:"realm"`
	Previous []string `json:"previous" yaml:"previous"`
	Current  []string `json:"current" yaml:"current"`
}

func (c loginChange) RenderText(w io.Writer) error {
	return output.Details(w, c.Realm, [][2]string{
		{"previous", cmdutil.EmptyOr(strings.Join(c.Previous, ", "), "(none)")},
		{"permitted-logins", cmdutil.EmptyOr(strings.Join(c.Current, ", "), "(none)")},
	})
}

func runChangeLogins(cmd *cobra.Command, args []string, permit bool) error {
	ctx := cmd.Context()
	s, err := cmdutil.NewSession(ctx, Version)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	var logins []string
	for _, arg := range args[1:] {
		logins = append(logins, cmdutil.ParseCommaSeparatedList(arg)...)
	}

	result, err := discover(ctx, s, args[0])
	var noMatch *realmd.NoMatchError
	if errors.As(err, &noMatch) {
		s.Printer.Error(noMatchMessage(args[0]))
		return cmdutil.Failure(err)
	}
	if err != nil {
		return err
	}
	ref, _ := result.Default()

	change := loginChange{}
	if change.Realm, err = realmd.RealmName(ctx, s.Conn, ref); err != nil {
		return err
	}
	if change.Previous, err = realmd.PermittedLogins(ctx, s.Conn, ref); err != nil {
		return err
	}

	add, remove := logins, []string(nil)
	if !permit {
		add, remove = nil, logins
	}

	id := realmd.NewOperationID()
	canceller := cancelOnInterrupt(s, id)
	err = realmd.ChangePermittedLogins(ctx, s.Conn, ref, add, remove, id, s.Config.Operation.CallTimeout)
	canceller.Stop()
	if err != nil {
		return err
	}

	if change.Current, err = realmd.PermittedLogins(ctx, s.Conn, ref); err != nil {
		return err
	}
	return s.Printer.Print(change)
}

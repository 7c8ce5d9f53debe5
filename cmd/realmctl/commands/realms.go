package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/marmos91/realmctl/cmd/realmctl/cmdutil"
	"github.com/marmos91/realmctl/internal/cli/output"
	"github.com/marmos91/realmctl/pkg/realmd"
)

// realmList renders realms as text blocks, a table, or JSON/YAML.
type realmList []*realmd.RealmInfo

func (l realmList) RenderText(w io.Writer) error {
	for i, info := range l {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := output.Details(w, info.Name, realmPairs(info)); err != nil {
			return err
		}
	}
	return nil
}

func (l realmList) Headers() []string {
	return []string{"Name", "Domain", "Configured", "Client", "Server"}
}

func (l realmList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, info := range l {
		rows = append(rows, []string{
			info.Name,
			info.Domain,
			configured(info),
			cmdutil.EmptyOr(info.Details[realmd.OptionClientSoftware], "-"),
			cmdutil.EmptyOr(info.Details[realmd.OptionServerSoftware], "-"),
		})
	}
	return rows
}

func realmPairs(info *realmd.RealmInfo) [][2]string {
	pairs := [][2]string{
		{"realm-name", info.Name},
		{"domain-name", info.Domain},
		{"configured", configured(info)},
	}
	for _, k := range info.DetailKeys() {
		pairs = append(pairs, [2]string{k, info.Details[k]})
	}
	pairs = append(pairs,
		[2]string{"login-formats", info.LoginFormat},
		[2]string{"permitted-logins", strings.Join(info.PermittedLogins, ", ")},
	)
	return pairs
}

func configured(info *realmd.RealmInfo) string {
	if info.Enrolled {
		return "kerberos-member"
	}
	return cmdutil.BoolToYesNo(false)
}

// providerList renders the providers registered with the service.
type providerList []realmd.ProviderInfo

func (l providerList) RenderText(w io.Writer) error {
	for _, p := range l {
		if _, err := fmt.Fprintf(w, "%s %s\n", p.BusName, p.Path); err != nil {
			return err
		}
	}
	return nil
}

func (l providerList) Headers() []string {
	return []string{"Bus Name", "Path", "Interface"}
}

func (l providerList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, p := range l {
		rows = append(rows, []string{p.BusName, string(p.Path), p.Interface})
	}
	return rows
}

// noMatchMessage is the report for a discovery that found nothing.
func noMatchMessage(input string) string {
	if input == "" {
		return "No default realm discovered"
	}
	return "No such realm found: " + input
}

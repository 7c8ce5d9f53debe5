package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/realmctl/cmd/realmctl/cmdutil"
	"github.com/marmos91/realmctl/internal/cli/output"
	"github.com/marmos91/realmctl/internal/cli/prompt"
	"github.com/marmos91/realmctl/internal/logger"
	"github.com/marmos91/realmctl/pkg/auth/kerberos"
	"github.com/marmos91/realmctl/pkg/config"
	"github.com/marmos91/realmctl/pkg/realmd"
)

// membershipFlags are shared by join and leave.
type membershipFlags struct {
	user               string
	credential         string
	cancelAfter        time.Duration
	computerOU         string
	clientSoftware     string
	serverSoftware     string
	membershipSoftware string
}

var (
	joinFlags  membershipFlags
	leaveFlags membershipFlags
)

// newPrompter returns the prompter for user names and passwords.
var newPrompter = func() realmd.Prompter { return prompt.Terminal{} }

var joinCmd = &cobra.Command{
	Use:   "join [realm]",
	Short: "Enroll this machine in a realm",
	Long: `Discover a realm and enroll this machine in it.

By default a Kerberos ticket is obtained with kinit into a private
credential cache, which is handed to the service and removed. With
--credential password the password is sent to the service instead.

Examples:
  # Join the domain as Administrator
  realmctl join example.com -U Administrator

  # Place the computer account in an OU and show progress
  realmctl join example.com -U admin --computer-ou "OU=Linux,DC=example,DC=com" -v

  # Give up after two minutes
  realmctl join example.com -U admin --cancel-after 2m`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMembership(cmd, args, realmd.ActionEnroll, &joinFlags)
	},
}

var leaveCmd = &cobra.Command{
	Use:   "leave [realm]",
	Short: "Unenroll this machine from a realm",
	Long: `Discover a realm and unenroll this machine from it.

Examples:
  # Leave the domain
  realmctl leave example.com -U Administrator`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMembership(cmd, args, realmd.ActionUnenroll, &leaveFlags)
	},
}

func init() {
	for _, c := range []struct {
		cmd   *cobra.Command
		flags *membershipFlags
	}{{joinCmd, &joinFlags}, {leaveCmd, &leaveFlags}} {
		f := c.cmd.Flags()
		f.StringVarP(&c.flags.user, "user", "U", "", "User to authenticate as (prompted when empty)")
		f.StringVar(&c.flags.credential, "credential", "", "Credential to send: ccache or password (default from config)")
		f.DurationVar(&c.flags.cancelAfter, "cancel-after", 0, "Cancel the outstanding call after this long")
		f.StringVar(&c.flags.clientSoftware, "client-software", "", "Client software to use, e.g. sssd or winbind")
		f.StringVar(&c.flags.serverSoftware, "server-software", "", "Server software of the realm, e.g. active-directory")
		f.StringVar(&c.flags.membershipSoftware, "membership-software", "", "Membership software to use, e.g. samba or adcli")
	}
	joinCmd.Flags().StringVar(&joinFlags.computerOU, "computer-ou", "", "OU to create the computer account in")
}

func runMembership(cmd *cobra.Command, args []string, action realmd.Action, f *membershipFlags) error {
	ctx := cmd.Context()
	s, err := cmdutil.NewSession(ctx, Version)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	acquirer, err := newAcquirer(&s.Config.Credential, f.credential)
	if err != nil {
		return err
	}

	wf := &realmd.Workflow{
		Conn:     s.Conn,
		Acquirer: acquirer,
		Prompter: newPrompter(),
		Timeout:  s.Config.Operation.CallTimeout,
		Metrics:  s.Metrics,
	}

	req := realmd.Request{
		Action:      action,
		User:        f.user,
		Options:     membershipOptions(f),
		CancelAfter: s.Config.Operation.CancelAfter,
	}
	if len(args) > 0 {
		req.Input = args[0]
	}
	if f.cancelAfter > 0 {
		req.CancelAfter = f.cancelAfter
	}
	if cmdutil.IsVerbose() {
		req.Diagnostics = realmd.DiagnosticsWriter(s.Printer.Status())
	}

	stop := cmdutil.OnInterrupt(func() {
		if wf.Cancel() {
			s.Printer.Info("Cancelling...")
		}
	})
	out := wf.Run(ctx, req)
	stop()

	return report(s.Printer, out)
}

func membershipOptions(f *membershipFlags) realmd.Options {
	return realmd.Options{}.
		Set(realmd.OptionComputerOU, f.computerOU).
		Set(realmd.OptionClientSoftware, f.clientSoftware).
		Set(realmd.OptionServerSoftware, f.serverSoftware).
		Set(realmd.OptionMembershipSoftware, f.membershipSoftware)
}

// newAcquirer builds the credential source for mode, falling back to the
// configured mode.
func newAcquirer(cfg *config.CredentialConfig, mode string) (realmd.Acquirer, error) {
	if mode == "" {
		mode = cfg.Mode
	}

	switch mode {
	case config.CredentialModePassword:
		return &realmd.PasswordAcquirer{Prompter: newPrompter()}, nil
	case config.CredentialModeCache:
		return &realmd.CacheAcquirer{
			Init:    kerberos.NewKinit(cfg),
			Dir:     cfg.CacheDir,
			Inspect: kerberos.CachePrincipal,
		}, nil
	default:
		return nil, fmt.Errorf("invalid credential mode %q (valid: ccache, password)", mode)
	}
}

// report prints the outcome of a run and converts it to the command
// result.
func report(p *output.Printer, out *realmd.Outcome) error {
	switch out.State {
	case realmd.StateDone:
		p.Success(out.Message())
		return nil
	case realmd.StateCancelled:
		logger.Debug("Run cancelled by user")
		return nil
	}

	p.Error(out.Message())
	return &cmdutil.ExitError{Code: out.ExitStatus(), Err: out.Err, Reported: true}
}

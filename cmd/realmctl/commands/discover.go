package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/marmos91/realmctl/cmd/realmctl/cmdutil"
	"github.com/marmos91/realmctl/internal/logger"
	"github.com/marmos91/realmctl/pkg/realmd"
)

var discoverCmd = &cobra.Command{
	Use:   "discover [realm]",
	Short: "Discover a realm and show its configuration",
	Long: `Ask the realm service what a domain or realm name refers to and print
every realm it found, most relevant first.

Without an argument the service discovers the default domain of this
machine.

Examples:
  # Discover a domain
  realmctl discover example.com

  # Discover the default domain, showing service diagnostics
  realmctl discover -v

  # Machine readable output
  realmctl discover example.com -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := cmdutil.NewSession(ctx, Version)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	input := ""
	if len(args) > 0 {
		input = args[0]
	}

	result, err := discover(ctx, s, input)
	var noMatch *realmd.NoMatchError
	if errors.As(err, &noMatch) {
		s.Printer.Error(noMatchMessage(input))
		return cmdutil.Failure(err)
	}
	if err != nil {
		return err
	}

	infos := make(realmList, 0, len(result.Realms))
	for _, ref := range result.Realms {
		info, err := realmd.DescribeRealm(ctx, s.Conn, ref)
		if err != nil {
			return err
		}
		infos = append(infos, info)
	}
	return s.Printer.Print(infos)
}

// discover runs one Discover call with diagnostics, the configured
// cancellation timer and Ctrl-C handling.
func discover(ctx context.Context, s *cmdutil.Session, input string) (realmd.DiscoveryResult, error) {
	id := realmd.NewOperationID()

	if cmdutil.IsVerbose() {
		sub, err := realmd.SubscribeDiagnostics(ctx, s.Conn, realmd.ServiceScope, id, realmd.DiagnosticsWriter(s.Printer.Status()))
		if err != nil {
			logger.Warn("Diagnostics unavailable", logger.Err(err))
		} else {
			defer sub.Close()
		}
	}

	canceller := cancelOnInterrupt(s, id)
	defer canceller.Stop()

	return realmd.Discover(ctx, s.Conn, input, id, s.Config.Operation.CallTimeout).Wait(ctx)
}

// cancelOnInterrupt arms the configured timer for id and cancels it on
// Ctrl-C until the returned Canceller is stopped.
func cancelOnInterrupt(s *cmdutil.Session, id realmd.OperationID) *stoppingCanceller {
	c := realmd.ArmCancellation(s.Conn, nil, s.Config.Operation.CancelAfter, id)
	stop := cmdutil.OnInterrupt(func() {
		s.Printer.Info("Cancelling...")
		c.CancelNow()
	})
	return &stoppingCanceller{Canceller: c, stopSignals: stop}
}

type stoppingCanceller struct {
	*realmd.Canceller
	stopSignals func()
}

func (c *stoppingCanceller) Stop() {
	c.stopSignals()
	c.Canceller.Stop()
}

package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/marmos91/realmctl/cmd/realmctl/cmdutil"
	"github.com/marmos91/realmctl/internal/logger"
)

var logsFlags struct {
	follow    bool
	lines     int
	operation string
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the realmctl log file",
	Long: `Display and optionally follow the log file set by logging.output.

Runs that log to stdout or stderr leave nothing to show. Use --operation
to keep only the lines of one realmd operation, as printed in diagnostics
and in the operation_id field.

Examples:
  # Show the last 100 lines
  realmctl logs

  # Follow a join running in another terminal
  realmctl logs -f

  # Lines of a single operation
  realmctl logs --operation realmctl-6f1c2a`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFlags.follow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().IntVarP(&logsFlags.lines, "lines", "n", 100, "Number of lines to show")
	logsCmd.Flags().StringVar(&logsFlags.operation, "operation", "", "Only show lines for this operation id")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	path := cfg.Logging.Output
	switch strings.ToLower(path) {
	case "stdout", "stderr":
		return fmt.Errorf("logs are written to %s, not a file\nset logging.output to a file path to keep them", path)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("log file not found: %s", path)
	}

	match := operationFilter(logsFlags.operation)
	if !logsFlags.follow {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		return tailLines(cmd.OutOrStdout(), f, logsFlags.lines, match)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	stop := cmdutil.OnInterrupt(cancel)
	defer stop()

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Following %s (Ctrl+C to stop)...\n", path)
	return followLogs(ctx, cmd.OutOrStdout(), path, logsFlags.lines, match)
}

// operationFilter matches lines carrying id in either log format. An empty
// id matches every line.
func operationFilter(id string) func(string) bool {
	if id == "" {
		return func(string) bool { return true }
	}
	text := logger.KeyOperationID + "=" + id
	jsonField := fmt.Sprintf("%q:%q", logger.KeyOperationID, id)
	return func(line string) bool {
		return strings.Contains(line, text) || strings.Contains(line, jsonField)
	}
}

// tailLines writes the last n lines of r accepted by match.
func tailLines(w io.Writer, r io.Reader, n int, match func(string) bool) error {
	if n <= 0 {
		return nil
	}

	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !match(line) {
			continue
		}
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading log file: %w", err)
	}

	for _, line := range ring {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// followLogs prints the last n lines of path, then every line appended to
// it until ctx is done or the file goes away.
func followLogs(ctx context.Context, w io.Writer, path string, n int, match func(string) bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch before reading so nothing written in between is missed.
	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch log file: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := bufio.NewReader(f)
	var partial strings.Builder

	// readNew prints complete lines from the current offset. A trailing
	// line still being written is kept for the next event.
	readNew := func() error {
		for {
			chunk, err := reader.ReadString('\n')
			partial.WriteString(chunk)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("error reading log file: %w", err)
			}
			line := strings.TrimSuffix(partial.String(), "\n")
			partial.Reset()
			if match(line) {
				if _, err := fmt.Fprintln(w, line); err != nil {
					return err
				}
			}
		}
	}

	if err := tailLines(w, reader, n, match); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				logger.Debug("Log file went away", "path", event.Name)
				return nil
			}
			if event.Has(fsnotify.Write) {
				if err := readNew(); err != nil {
					return err
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

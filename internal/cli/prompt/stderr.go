package prompt

import (
	"os"

	"github.com/marmos91/realmctl/pkg/realmd"
)

var _ realmd.Prompter = Terminal{}

// stderr is os.Stderr without Close; promptui closes its output when the
// prompt ends.
type stderr struct{}

func (stderr) Write(p []byte) (int, error) { return os.Stderr.Write(p) }
func (stderr) Close() error                { return nil }

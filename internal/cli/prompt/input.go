// Package prompt asks the operator for the values realmctl needs on the
// terminal.
package prompt

import (
	"errors"
	"io"

	"github.com/manifoldco/promptui"

	"github.com/marmos91/realmctl/pkg/realmd"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C or Ctrl+D).
// It wraps realmd.ErrUserCancelled so a run treats it as a cancellation.
var ErrAborted = abortedError{}

type abortedError struct{}

func (abortedError) Error() string        { return "aborted" }
func (abortedError) Is(target error) bool { return target == realmd.ErrUserCancelled }

// IsAborted returns true if the error indicates the user aborted.
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) ||
		errors.Is(err, promptui.ErrAbort) ||
		errors.Is(err, promptui.ErrEOF) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, ErrAborted)
}

// wrapError converts promptui interrupt/abort errors to ErrAborted for consistent handling.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsAborted(err) {
		return ErrAborted
	}
	return err
}

// Terminal prompts on a terminal and satisfies realmd.Prompter. Zero
// Stdin/Stdout use the process's stdin and stderr, keeping stdout free
// for command output.
type Terminal struct {
	Stdin  io.ReadCloser
	Stdout io.WriteCloser
}

// Input prompts for a line of text. An empty answer is returned as is.
func (t Terminal) Input(label string) (string, error) {
	p := promptui.Prompt{
		Label:  label,
		Stdin:  t.Stdin,
		Stdout: t.stdout(),
	}

	result, err := p.Run()
	return result, wrapError(err)
}

// Password prompts for a secret with masked echo.
func (t Terminal) Password(label string) ([]byte, error) {
	p := promptui.Prompt{
		Label:       label,
		Mask:        '*',
		HideEntered: true,
		Stdin:       t.Stdin,
		Stdout:      t.stdout(),
	}

	result, err := p.Run()
	if err != nil {
		return nil, wrapError(err)
	}
	return []byte(result), nil
}

func (t Terminal) stdout() io.WriteCloser {
	if t.Stdout != nil {
		return t.Stdout
	}
	return stderr{}
}

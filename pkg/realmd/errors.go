package realmd

import (
	"errors"
	"fmt"

	"github.com/marmos91/realmctl/pkg/bus"
)

// ErrUserCancelled means the user declined to provide credentials. It ends
// the run successfully.
var ErrUserCancelled = errors.New("cancelled by user")

// ErrTimerArmed is returned when a second cancellation timer is armed in
// the same run.
var ErrTimerArmed = errors.New("cancellation timer already armed")

// NoMatchError means discovery found no realm for the input.
type NoMatchError struct {
	Input     string
	Relevance int32
}

// Error implements the error interface.
func (e *NoMatchError) Error() string {
	return "nothing discovered"
}

// ExternalStepError means the external credential initialization step
// failed.
type ExternalStepError struct {
	Command  string
	ExitCode int
	Err      error
}

// Error implements the error interface.
func (e *ExternalStepError) Error() string {
	if e.ExitCode > 0 {
		return fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExternalStepError) Unwrap() error { return e.Err }

// EnrollmentError wraps a failed enroll or unenroll call.
type EnrollmentError struct {
	Action Action
	Err    error
}

// Error implements the error interface. The remote message is shown as
// received.
func (e *EnrollmentError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error.
func (e *EnrollmentError) Unwrap() error { return e.Err }

// Kind classifies workflow errors.
type Kind int

const (
	KindNone Kind = iota
	KindNoMatch
	KindTransport
	KindUserCancelled
	KindExternalStep
	KindEnrollment
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNoMatch:
		return "no-match"
	case KindTransport:
		return "transport"
	case KindUserCancelled:
		return "user-cancelled"
	case KindExternalStep:
		return "external-step"
	case KindEnrollment:
		return "enrollment"
	default:
		return "unknown"
	}
}

// Classify returns the Kind of err.
func Classify(err error) Kind {
	var (
		noMatch *NoMatchError
		step    *ExternalStepError
		enroll  *EnrollmentError
	)
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUserCancelled):
		return KindUserCancelled
	case errors.As(err, &noMatch):
		return KindNoMatch
	case errors.As(err, &step):
		return KindExternalStep
	case errors.As(err, &enroll):
		return KindEnrollment
	default:
		return KindTransport
	}
}

// gioCancelled is how GDBus names a GIO cancellation it has no mapping for.
const gioCancelled = "org.gtk.GDBus.UnmappedGError.Quark._g_2dio_2derror_2dquark.Code19"

// IsCancelled reports whether err is the service's answer to a Cancel
// request.
func IsCancelled(err error) bool {
	return bus.IsRemote(err, ErrorCancelled) || bus.IsRemote(err, gioCancelled)
}

package bus

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a closed connection.
var ErrClosed = errors.New("bus connection closed")

// RemoteError is an error reply sent by the remote peer.
type RemoteError struct {
	Name    string // D-Bus error name, e.g. org.freedesktop.realmd.Error.Busy
	Message string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Name
}

// TransportError means the call could not be delivered or its reply never
// arrived: connection failure, timeout or local cancellation.
type TransportError struct {
	Method string
	Err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Method == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Method, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error { return e.Err }

// IsRemote reports whether err is a RemoteError with the given name.
func IsRemote(err error, name string) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Name == name
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

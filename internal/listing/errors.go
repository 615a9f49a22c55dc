package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/maruel/propertyhub/internal/records"
)

// ErrNotFound is returned, wrapped, when no record matches an id.
var ErrNotFound = errors.New("not found")

// RemoteFailure is a failure reported by the record store.
type RemoteFailure struct {
	Message string
	Err     error
}

func (e *RemoteFailure) Error() string {
	return "record store: " + e.Message
}

func (e *RemoteFailure) Unwrap() error {
	return e.Err
}

// ConfigurationError reports an unusable query parameter.
type ConfigurationError struct {
	Field string
	Value string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

// remoteFailure converts a store error. Context cancellation is passed
// through unchanged.
func remoteFailure(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var rf *RemoteFailure
	if errors.As(err, &rf) {
		return err
	}
	msg := err.Error()
	var re *records.RemoteError
	if errors.As(err, &re) {
		msg = re.Message
	}
	return &RemoteFailure{Message: msg, Err: err}
}

// firstFailure returns a RemoteFailure for the first failed result.
func firstFailure(results []records.Result) error {
	if r, ok := records.FirstFailure(results); ok {
		return &RemoteFailure{Message: r.Message}
	}
	return nil
}

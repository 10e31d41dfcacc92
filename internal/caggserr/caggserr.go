// Package caggserr classifies the errors the core pipeline can
// surface into a process-exit taxonomy: internal/pipeline and
// cmd/caggs tag the errors they return with one of these kinds, and
// cmd/caggs maps the final error to an exit code.
package caggserr

import "fmt"

// Kind distinguishes the fatal error classes the pipeline can raise.
// A malformed record, an absent field or a non-numeric field value
// never reaches this taxonomy: the worker handles each inline (a
// malformed record is logged at debug level and skipped) and returns
// no error for it.
type Kind int

const (
	// Unknown is any error that wasn't raised through Wrap; it
	// still exits 1 but isn't one of the named kinds.
	Unknown Kind = iota
	ConfigError
	IoError
	IndexParseError
	PoolError
	Cancellation
)

func (k Kind) String() string {
	switch k {
	case ConfigError:
		return "ConfigError"
	case IoError:
		return "IoError"
	case IndexParseError:
		return "IndexParseError"
	case PoolError:
		return "PoolError"
	case Cancellation:
		return "Cancellation"
	default:
		return "Unknown"
	}
}

// Error pairs a Kind with its underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap tags err with kind. Wrapping nil returns nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// ExitCode maps an error (possibly produced by Wrap, possibly not) to
// a process exit code: cancellation exits cleanly (0, same as success
// — the cooperative stop is not a failure), every other fatal error
// exits 1.
func ExitCode(err error) int {
	if err == nil || IsCancellation(err) {
		return 0
	}
	return 1
}

// IsCancellation reports whether err (possibly wrapped) is a
// Cancellation error.
func IsCancellation(err error) bool {
	var e *Error
	return asError(err, &e) && e.Kind == Cancellation
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

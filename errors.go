package quarry

import (
	"errors"
	"fmt"
)

// Sentinel errors for the error classes surfaced by this layer. Use
// errors.Is against these to branch on the class of a failure.
var (
	// ErrValidation indicates malformed query input: a bad between pair, an
	// unrecognized operator tag, or an unsafe identifier. Raised before any
	// statement reaches storage.
	ErrValidation = errors.New("quarry: validation error")

	// ErrConstraint indicates a unique, not-null, or foreign-key violation
	// reported by the storage engine.
	ErrConstraint = errors.New("quarry: constraint violation")

	// ErrConnClosed indicates a reference to a logical database after the
	// client was disconnected. Handles never silently reopen.
	ErrConnClosed = errors.New("quarry: connection closed")

	// ErrTxAborted indicates a unit of work was rolled back. The database is
	// left as if the unit of work never started.
	ErrTxAborted = errors.New("quarry: transaction aborted")

	// ErrUnsupported indicates an optional capability the backend does not
	// implement.
	ErrUnsupported = errors.New("quarry: unsupported operation")
)

// Error carries operation context alongside one of the sentinel classes.
type Error struct {
	// Op is the operation that failed, e.g. "insert" or "createIndex".
	Op string

	// Database and Table identify the logical database and table involved,
	// when known.
	Database string
	Table    string

	// Message is the human-readable description.
	Message string

	// Kind is the sentinel class this error belongs to.
	Kind error

	// Cause is the underlying error, typically from the storage engine.
	Cause error
}

func (e *Error) Error() string {
	prefix := "quarry"
	if e.Op != "" {
		prefix = "quarry: " + e.Op
	}
	if e.Database != "" && e.Table != "" {
		prefix += fmt.Sprintf(" %s.%s", e.Database, e.Table)
	} else if e.Database != "" {
		prefix += " " + e.Database
	}
	if e.Message != "" {
		return prefix + ": " + e.Message
	}
	if e.Cause != nil {
		return prefix + ": " + e.Cause.Error()
	}
	return prefix
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches against the error's kind as well as its cause chain.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// Validationf builds an ErrValidation with a formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConstraint reports whether err is a constraint violation.
func IsConstraint(err error) bool { return errors.Is(err, ErrConstraint) }

// IsConnClosed reports whether err was caused by a closed connection.
func IsConnClosed(err error) bool { return errors.Is(err, ErrConnClosed) }

// IsTxAborted reports whether err is a rolled-back transaction.
func IsTxAborted(err error) bool { return errors.Is(err, ErrTxAborted) }

// IsUnsupported reports whether err is a missing optional capability.
func IsUnsupported(err error) bool { return errors.Is(err, ErrUnsupported) }

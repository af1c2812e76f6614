package common

import (
	"errors"
	"fmt"
)

type GoDFErrorCode int

const (
	// SchemaError indicates a duplicate or missing column name, or an unnamed/untyped
	// expression used where a schema field is required.
	SchemaError GoDFErrorCode = iota
	// ConfigurationError indicates a builder call whose arguments violate a precondition,
	// such as an unsupported join or aggregation kind, or an empty aggregation list.
	ConfigurationError
	// DuplicateObjectError indicates an attempt to register a source or dataset under a name
	// that is already taken.
	DuplicateObjectError
	// NoSuchObjectError indicates a request for a source or dataset that does not exist.
	NoSuchObjectError
	// ExecutionError is returned by a Runner when data violates an assumption of the plan at
	// execution time.
	ExecutionError
	// NotSupportedError indicates a plan feature the Runner cannot execute.
	NotSupportedError
)

func (ec GoDFErrorCode) String() string {
	switch ec {
	case SchemaError:
		return "SchemaError"
	case ConfigurationError:
		return "ConfigurationError"
	case DuplicateObjectError:
		return "DuplicateObjectError"
	case NoSuchObjectError:
		return "NoSuchObjectError"
	case ExecutionError:
		return "ExecutionError"
	case NotSupportedError:
		return "NotSupportedError"
	}
	return "unknown"
}

// GoDFError is the custom error type for the dataframe engine.
// It wraps a specific GoDFErrorCode with a detailed message.
//
// Every failure raised while building a plan is a caller error: there is no retry policy,
// and the code tells the caller which precondition was violated.
type GoDFError struct {
	Code      GoDFErrorCode
	ErrString string
}

func (e GoDFError) Error() string {
	return fmt.Sprintf("err: %s; msg: %s", e.Code.String(), e.ErrString)
}

// Errorf builds a GoDFError with a formatted message.
func Errorf(code GoDFErrorCode, format string, args ...any) GoDFError {
	return GoDFError{Code: code, ErrString: fmt.Sprintf(format, args...)}
}

// IsErrorCode reports whether err (or anything it wraps) is a GoDFError with the given code.
func IsErrorCode(err error, code GoDFErrorCode) bool {
	var gErr GoDFError
	if errors.As(err, &gErr) {
		return gErr.Code == code
	}
	return false
}

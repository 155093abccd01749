package apperrors

import (
	"errors"
	"fmt"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorLoad     = 2   // Indicates a data-loading failure.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// NotFoundError reports that a lookup found nothing: a file, a direct beam,
// or a list membership. Kind names the category searched, Key the identifier
// that was looked up.
type NotFoundError struct {
	// Kind is the category of the missing entity ("file", "direct beam", ...).
	Kind string
	// Key is the identifier that could not be resolved.
	Key string
}

// Error returns a formatted message describing the failed lookup.
func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// NewNotFoundError creates a NotFoundError for the given category and key.
func NewNotFoundError(kind, key string) error {
	return NotFoundError{Kind: kind, Key: key}
}

// CompatibilityError reports a cross-section set mismatch when adding a
// measurement to the reduction list. Have and Want carry the channel labels
// of the rejected measurement and of the fixed reduction states.
type CompatibilityError struct {
	// Have is the channel-label set of the rejected measurement.
	Have []string
	// Want is the fixed channel-label set of the reduction list.
	Want []string
}

// Error returns a formatted message describing the mismatch.
func (e CompatibilityError) Error() string {
	return fmt.Sprintf("incompatible cross-sections: measurement has %v, reduction list requires %v", e.Have, e.Want)
}

// CalculationError encapsulates a calculation error while preserving the
// original cause. This allows for structured error handling and inspection
// of what went wrong during a reflectivity, off-specular or GISANS calculation.
type CalculationError struct {
	// Cause is the underlying error that triggered this calculation error.
	Cause error
}

// Error returns the error message from the underlying cause.
func (e CalculationError) Error() string { return e.Cause.Error() }

// Unwrap returns the original wrapped error, allowing for error chain
// inspection (e.g., using errors.Is or errors.As).
func (e CalculationError) Unwrap() error { return e.Cause }

// NewCalculationError wraps err as a CalculationError. Returns nil if err is nil.
func NewCalculationError(err error) error {
	if err == nil {
		return nil
	}
	return CalculationError{Cause: err}
}

// LoadError represents a failure to materialize a measurement from disk:
// a missing file, an unreadable file, or a parse failure inside the loader.
type LoadError struct {
	// Path is the canonical (possibly '+'-joined) path that failed to load.
	Path string
	// Cause is the underlying error, or nil when only the path is known.
	Cause error
}

// Error returns a formatted message describing the load failure.
func (e LoadError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("failed to load %s", e.Path)
	}
	return fmt.Sprintf("failed to load %s: %s", e.Path, e.Cause.Error())
}

// Unwrap returns the underlying cause of the LoadError.
func (e LoadError) Unwrap() error { return e.Cause }

// NewLoadError creates a LoadError for the given path and cause.
func NewLoadError(path string, cause error) error {
	return LoadError{Path: path, Cause: cause}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

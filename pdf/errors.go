package pdf

import "fmt"

// ValidationError reports malformed client input: a missing file, a missing or invalid
// parameter, or a page selection that cannot be applied to the document.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// TransformError reports a decode, encode or rasterize failure in the underlying
// libraries, typically caused by a corrupt input.
type TransformError struct {
	Op     string
	Detail string
	Err    error
}

func (e *TransformError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s failed: %s", e.Op, e.Detail)
	}
	return fmt.Sprintf("%s failed", e.Op)
}

func (e *TransformError) Unwrap() error { return e.Err }

// transformErr wraps err for op, keeping its text as the diagnostic detail.
func transformErr(op string, err error) *TransformError {
	return &TransformError{Op: op, Detail: err.Error(), Err: err}
}

// ConfigurationError reports that an external capability required by an operation
// (e.g. the rasterizer) is not available on this host.
type ConfigurationError struct {
	Capability string
	Message    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s unavailable: %s", e.Capability, e.Message)
}

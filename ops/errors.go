package ops

import (
	"errors"
	"fmt"
)

// Sentinel errors for operation construction.
var (
	// ErrUnsupportedDType is returned for operand type combinations that
	// have no kernel.
	ErrUnsupportedDType = errors.New("ops: unsupported dtype")

	// ErrNotYetSupported is returned for combinations that are recognized
	// but have no code generation branch yet.
	ErrNotYetSupported = errors.New("ops: not yet supported")

	// ErrInvalidShape is returned when operand shapes do not agree.
	ErrInvalidShape = errors.New("ops: invalid shape")
)

// OperationError reports a failure constructing or rendering an operation.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("ops: %s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

func opError(op string, sentinel error, format string, args ...any) error {
	return &OperationError{Op: op, Err: fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)}
}

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/ratchet/internal/pool"
)

// Sentinel errors for the gpu package.
var (
	// ErrKernelNotFound is returned when a pipeline names a static kernel
	// that is not in the catalogue. It indicates a packaging defect.
	ErrKernelNotFound = errors.New("gpu: kernel not found")

	// ErrShaderValidation is matched by every *ShaderValidationError.
	ErrShaderValidation = errors.New("gpu: shader validation failed")

	// ErrResourceUnavailable is returned when a pool must not block and its
	// lock is already held.
	ErrResourceUnavailable = pool.ErrResourceUnavailable

	// ErrAdapterRequestFailed is returned when no compute adapter is found.
	ErrAdapterRequestFailed = errors.New("gpu: no suitable adapter found")

	// ErrDeviceRequestFailed is matched by every *DeviceError.
	ErrDeviceRequestFailed = errors.New("gpu: device request failed")

	// ErrDeviceDestroyed is returned when using a destroyed device.
	ErrDeviceDestroyed = errors.New("gpu: device destroyed")
)

// ShaderValidationError reports WGSL rejected by checked compilation.
// Source holds the offending shader text for diagnosis.
type ShaderValidationError struct {
	Label  string
	Source string
	Err    error
}

func (e *ShaderValidationError) Error() string {
	return fmt.Sprintf("gpu: shader validation failed for %q: %v", e.Label, e.Err)
}

func (e *ShaderValidationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrShaderValidation.
func (e *ShaderValidationError) Is(target error) bool { return target == ErrShaderValidation }

// DeviceError reports a failed device acquisition, after the reduced
// limits fallback has been tried.
type DeviceError struct {
	Adapter string
	Err     error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("gpu: request device on %q: %v", e.Adapter, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Is reports whether target is ErrDeviceRequestFailed.
func (e *DeviceError) Is(target error) bool { return target == ErrDeviceRequestFailed }

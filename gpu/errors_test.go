package gpu

import (
	"errors"
	"strings"
	"testing"
)

func TestShaderValidationError(t *testing.T) {
	cause := errors.New("unexpected token")
	err := error(&ShaderValidationError{Label: "gemv", Source: "fn", Err: cause})

	if !errors.Is(err, ErrShaderValidation) {
		t.Error("not ErrShaderValidation")
	}
	if !errors.Is(err, cause) {
		t.Error("cause not in chain")
	}
	if !strings.Contains(err.Error(), "gemv") || !strings.Contains(err.Error(), "unexpected token") {
		t.Errorf("Error() = %q", err)
	}
}

func TestDeviceError(t *testing.T) {
	cause := errors.New("lost")
	err := error(&DeviceError{Adapter: "gpu0", Err: cause})

	if !errors.Is(err, ErrDeviceRequestFailed) || !errors.Is(err, cause) {
		t.Errorf("chain of %v is incomplete", err)
	}
	if errors.Is(err, ErrAdapterRequestFailed) {
		t.Error("device error matches ErrAdapterRequestFailed")
	}
}

package gpu

import (
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// EntryPoint is the compute entry point of every kernel.
const EntryPoint = "main"

// CompileWGSL validates WGSL source with naga and returns SPIR-V words.
// Validation failures are returned as *ShaderValidationError.
func CompileWGSL(label, source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, &ShaderValidationError{Label: label, Source: source, Err: err}
	}
	return spirvWords(spirvBytes), nil
}

// spirvWords packs SPIR-V bytes into little-endian 32-bit words.
func spirvWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words
}

// createShaderModule compiles source into a module on device.
//
// Checked mode validates the WGSL with naga and hands the device SPIR-V.
// Unchecked mode passes the WGSL text straight to the device, so invalid
// source is only caught, if at all, by the driver.
func createShaderModule(device hal.Device, label, source string, checked bool) (hal.ShaderModule, error) {
	if !checked {
		return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  label,
			Source: hal.ShaderSource{WGSL: source},
		})
	}

	code, err := CompileWGSL(label, source)
	if err != nil {
		slogger().Warn("gpu: shader validation failed", "kernel", label, "err", err)
		return nil, err
	}
	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: code},
	})
}

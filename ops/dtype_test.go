package ops

import (
	"errors"
	"slices"
	"testing"
)

func TestParseDType(t *testing.T) {
	for _, dt := range []DType{F32, F16, Q8_0, Q4_0, Q4_K, Q6_K} {
		got, err := ParseDType(dt.String())
		if err != nil || got != dt {
			t.Errorf("ParseDType(%q) = %v, %v", dt, got, err)
		}
	}
	if got, _ := ParseDType("Q8_0"); got != Q8_0 {
		t.Errorf("ParseDType is case sensitive")
	}
	if _, err := ParseDType("bf16"); !errors.Is(err, ErrUnsupportedDType) {
		t.Errorf("ParseDType(bf16) err = %v", err)
	}
}

func TestDTypeClasses(t *testing.T) {
	tests := []struct {
		dt        DType
		float     bool
		quantized bool
		block     int
	}{
		{F32, true, false, 1},
		{F16, true, false, 1},
		{Q8_0, false, true, 32},
		{Q4_0, false, true, 32},
		{Q4_K, false, true, 256},
		{Q6_K, false, true, 256},
	}
	for _, tt := range tests {
		if tt.dt.IsFloat() != tt.float || tt.dt.IsQuantized() != tt.quantized || tt.dt.BlockSize() != tt.block {
			t.Errorf("%s: float=%v quantized=%v block=%d", tt.dt,
				tt.dt.IsFloat(), tt.dt.IsQuantized(), tt.dt.BlockSize())
		}
	}
}

func TestTensorDesc(t *testing.T) {
	d := NewTensorDesc(F32, 2, 3, 4)
	if !slices.Equal(d.Strides, []int{12, 4, 1}) {
		t.Errorf("Strides = %v, want [12 4 1]", d.Strides)
	}
	if d.Numel() != 24 {
		t.Errorf("Numel() = %d, want 24", d.Numel())
	}
	if got := d.shape3(); got != [3]int32{2, 3, 4} {
		t.Errorf("shape3() = %v", got)
	}

	v := NewTensorDesc(F32, 5)
	if got := v.shape3(); got != [3]int32{1, 1, 5} {
		t.Errorf("vector shape3() = %v", got)
	}
	if got := v.strides3(); got != [3]int32{5, 5, 1} {
		t.Errorf("vector strides3() = %v", got)
	}
	if got := d.String(); got != "f32[2 3 4]" {
		t.Errorf("String() = %q", got)
	}
}

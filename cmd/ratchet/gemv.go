package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/ratchet/ops"
	"github.com/gogpu/ratchet/wgsl"
)

// gemvFlags describe a GEMV from the command line.
type gemvFlags struct {
	lhs       string
	rhs       string
	m, k      int
	batch     int
	bias      bool
	element   string
	workgroup string
}

func (f *gemvFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.lhs, "dtype", "f32", "Matrix dtype (f32, f16, q8_0, q4_0, q4_k, q6_k)")
	fl.StringVar(&f.rhs, "rhs-dtype", "f32", "Vector dtype")
	fl.IntVarP(&f.m, "rows", "m", 128, "Matrix rows")
	fl.IntVarP(&f.k, "inner", "k", 128, "Reduction length")
	fl.IntVar(&f.batch, "batch", 1, "Matrix batch count")
	fl.BoolVar(&f.bias, "bias", false, "Add a bias vector")
	fl.StringVar(&f.element, "element", "", "Kernel element (scalar, vec2, vec4); chosen from k when empty")
	fl.StringVar(&f.workgroup, "workgroup", "16,16,1", "Workgroup size x,y,z")
}

// build returns the operation and workgroup size.
func (f *gemvFlags) build() (*ops.GEMV, wgsl.WorkgroupSize, error) {
	lhsType, err := ops.ParseDType(f.lhs)
	if err != nil {
		return nil, wgsl.WorkgroupSize{}, err
	}
	rhsType, err := ops.ParseDType(f.rhs)
	if err != nil {
		return nil, wgsl.WorkgroupSize{}, err
	}
	wg, err := parseWorkgroupSize(f.workgroup)
	if err != nil {
		return nil, wgsl.WorkgroupSize{}, err
	}

	lhs := ops.NewTensorDesc(lhsType, f.m, f.k)
	if f.batch > 1 {
		lhs = ops.NewTensorDesc(lhsType, f.batch, f.m, f.k)
	}
	var opts []ops.GEMVOption
	if f.bias {
		opts = append(opts, ops.WithBias(ops.NewTensorDesc(rhsType, f.m)))
	}
	if f.element != "" {
		e, err := wgsl.ParseKernelElement(f.element)
		if err != nil {
			return nil, wgsl.WorkgroupSize{}, err
		}
		opts = append(opts, ops.WithKernelElement(e))
	}

	op, err := ops.NewGEMV(lhs, ops.NewTensorDesc(rhsType, f.k, 1), opts...)
	if err != nil {
		return nil, wgsl.WorkgroupSize{}, err
	}
	return op, wg, nil
}

// parseWorkgroupSize parses "x,y,z"; missing trailing dimensions are 1.
func parseWorkgroupSize(s string) (wgsl.WorkgroupSize, error) {
	parts := strings.Split(s, ",")
	if len(parts) > 3 {
		return wgsl.WorkgroupSize{}, fmt.Errorf("workgroup size %q has more than 3 dimensions", s)
	}
	dims := [3]uint32{1, 1, 1}
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil || n == 0 {
			return wgsl.WorkgroupSize{}, fmt.Errorf("invalid workgroup dimension %q", p)
		}
		dims[i] = uint32(n)
	}
	return wgsl.NewWorkgroupSize(dims[0], dims[1], dims[2]), nil
}

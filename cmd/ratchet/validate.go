package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/ratchet/gpu"
	"github.com/gogpu/ratchet/kernels"
)

var validateKernels bool

var validateCmd = &cobra.Command{
	Use:   "validate [file.wgsl ...]",
	Short: "Validate WGSL files (or - for stdin) with naga",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		var failed int
		check := func(label, src string) {
			words, err := gpu.CompileWGSL(label, src)
			if err != nil {
				failed++
				var sve *gpu.ShaderValidationError
				if errors.As(err, &sve) {
					err = sve.Err
				}
				fmt.Fprintf(out, "FAIL %s: %v\n", label, err)
				return
			}
			fmt.Fprintf(out, "ok   %s (%d SPIR-V words)\n", label, len(words))
		}

		if validateKernels {
			for _, name := range kernels.Names() {
				check(name, kernels.MustLookup(name))
			}
		}
		for _, path := range args {
			src, err := readSource(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}
			check(path, src)
		}
		if failed > 0 {
			return fmt.Errorf("%d shader(s) failed validation", failed)
		}
		return nil
	},
}

func readSource(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func init() {
	validateCmd.Flags().BoolVar(&validateKernels, "kernels", false, "Also validate the static kernel catalogue")
	rootCmd.AddCommand(validateCmd)
}

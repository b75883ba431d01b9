package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/ratchet/gpu"
)

var (
	renderFlags gemvFlags
	renderCheck bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a specialized GEMV kernel to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		op, wg, err := renderFlags.build()
		if err != nil {
			return err
		}
		kernel, err := op.Render(false, op.OutputDesc(), wg)
		if err != nil {
			return err
		}
		if renderCheck {
			if _, err := gpu.CompileWGSL(op.KernelKey(), kernel.Source); err != nil {
				return err
			}
		}
		workgroups, err := op.Dispatch(wg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "// %s, dispatch %v\n%s", op.KernelKey(), workgroups, kernel.Source)
		return nil
	},
}

func init() {
	renderFlags.register(renderCmd)
	renderCmd.Flags().BoolVar(&renderCheck, "check", false, "Validate the kernel with naga")
	rootCmd.AddCommand(renderCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/ratchet/gpu"
	"github.com/gogpu/ratchet/ops"
)

var (
	prepareFlags   gemvFlags
	prepareChecked bool
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Build a GEMV pipeline on the GPU and report the pooled objects",
	RunE: func(cmd *cobra.Command, args []string) error {
		op, wg, err := prepareFlags.build()
		if err != nil {
			return err
		}

		opts := []gpu.Option{}
		if cmd.Flags().Changed("checked") {
			opts = append(opts, gpu.WithChecked(prepareChecked))
		}
		dev, err := gpu.NewDevice(opts...)
		if err != nil {
			return err
		}
		defer dev.Destroy()

		p, err := ops.Prepare(dev, op, op.OutputDesc(), wg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "adapter:    %s (checked=%v)\n", dev.Name(), dev.Config().Checked)
		fmt.Fprintf(out, "kernel:     %s\n", p.Key)
		fmt.Fprintf(out, "pipeline:   %s\n", p.Pipeline)
		fmt.Fprintf(out, "workgroups: %v\n", p.Workgroups)
		fmt.Fprintf(out, "pools:      %d layouts, %d pipeline layouts, %d sources, %d pipelines\n",
			dev.BindGroupLayouts().Len(), dev.PipelineLayouts().Len(),
			dev.KernelSources().Len(), dev.ComputePipelines().Len())
		return nil
	},
}

func init() {
	prepareFlags.register(prepareCmd)
	prepareCmd.Flags().BoolVar(&prepareChecked, "checked", false, "Validate shaders with naga (overrides "+gpu.CheckedEnv+")")
	rootCmd.AddCommand(prepareCmd)
}

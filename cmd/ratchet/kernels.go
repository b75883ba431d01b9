package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/ratchet/kernels"
)

var kernelsCmd = &cobra.Command{
	Use:   "kernels [name]",
	Short: "List static kernels or print one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			for _, name := range kernels.Names() {
				fmt.Fprintln(out, name)
			}
			return nil
		}
		src, ok := kernels.Lookup(args[0])
		if !ok {
			return fmt.Errorf("kernel %q not found", args[0])
		}
		fmt.Fprint(out, src)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(kernelsCmd)
}

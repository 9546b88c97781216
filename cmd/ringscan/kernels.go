package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dendrolab/ringscan/internal/kernel"
)

func newKernelsCmd(a *app) *cobra.Command {
	var matrices bool
	cmd := &cobra.Command{
		Use:   "kernels",
		Short: "List the convolution kernels available to filter passes",
		RunE: func(cmd *cobra.Command, args []string) error {
			name := color.New(color.FgCyan)
			for _, n := range kernel.Names() {
				k := kernel.Get(n)
				fmt.Fprint(a.out, name.Sprintf("%-18s", n))
				fmt.Fprintln(a.out, a.printer.Sprintf("weight %6.3f", kernel.Weight(k)))
				if matrices {
					for dy := -1; dy <= 1; dy++ {
						fmt.Fprintln(a.out, a.printer.Sprintf("    %7.3f %7.3f %7.3f", k.At(-1, dy), k.At(0, dy), k.At(1, dy)))
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&matrices, "matrices", "m", false, "Print the 3x3 matrices")
	return cmd
}

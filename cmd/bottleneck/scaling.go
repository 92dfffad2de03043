// cmd/bottleneck/scaling.go
package bottleneck

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mwiater/bottleneck/internal/stats"
)

var scalingOpts struct {
	t1, t2     float64
	processors int
}

// scalingCmd implements 'scaling', which evaluates the scaling laws for a
// pair of timings without running anything.
var scalingCmd = &cobra.Command{
	Use:   "scaling",
	Short: "Estimate Amdahl and Gustafson speedups from two timings",
	Long:  `The 'scaling' command derives the serial and parallel fractions from the elapsed time on one core (--t1) and two cores (--t2), then prints the Amdahl and Gustafson speedups for --processors processors.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fit, err := stats.FitScaling(scalingOpts.t1, scalingOpts.t2, scalingOpts.processors)
		if err != nil {
			return err
		}
		printScaling(cmd.OutOrStdout(), fit)
		return nil
	},
}

func init() {
	scalingCmd.Flags().Float64Var(&scalingOpts.t1, "t1", 0, "elapsed seconds on one core")
	scalingCmd.Flags().Float64Var(&scalingOpts.t2, "t2", 0, "elapsed seconds on two cores")
	scalingCmd.Flags().IntVar(&scalingOpts.processors, "processors", stats.DefaultProcessors, "asymptotic processor count")
	scalingCmd.MarkFlagRequired("t1")
	scalingCmd.MarkFlagRequired("t2")
	rootCmd.AddCommand(scalingCmd)
}

func printScaling(w io.Writer, fit stats.Scaling) {
	t := newTable("estimate", "value")
	t.Row("parallel", stats.Format(fit.Parallel))
	t.Row("serial", stats.Format(fit.Serial))
	t.Row(fmt.Sprintf("amdahl (P=%d)", fit.Processors), stats.Format(fit.Amdahl))
	t.Row(fmt.Sprintf("gustafson (P=%d)", fit.Processors), stats.Format(fit.Gustafson))
	fmt.Fprintln(w, t.String())
}

// cmd/bottleneck/sections.go
package bottleneck

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/bottleneck/internal/sweep"
)

// sectionsCmd implements 'sections', which lists the sweep sections in
// run order with the facts each one needs and produces.
var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "List the sweep sections in run order",
	Long:  `The 'sections' command lists every sweep section in the order 'run' executes them, with the facts each section requires and the facts it always produces. Use the names with 'run --only' and 'run --skip'.`,
	Run: func(cmd *cobra.Command, args []string) {
		listSections(cmd.OutOrStdout(), sweep.Default())
	},
}

func init() {
	rootCmd.AddCommand(sectionsCmd)
}

func listSections(w io.Writer, sections []sweep.Section) {
	t := newTable("#", "section", "requires", "produces")
	for i, s := range sections {
		requires := "-"
		if r := s.Requires(); len(r) > 0 {
			requires = strings.Join(r, ", ")
		}
		t.Row(fmt.Sprint(i+1), s.Name(), requires, strings.Join(s.Produces(), ", "))
	}
	fmt.Fprintln(w, t.String())
}

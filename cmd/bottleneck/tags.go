// cmd/bottleneck/tags.go
package bottleneck

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mwiater/bottleneck/internal/facts"
)

// tagsCmd implements 'tags', which prints a facts file the way the report
// template sees it.
var tagsCmd = &cobra.Command{
	Use:   "tags <facts file>",
	Short: "Show the facts of a run with their template placeholders",
	Long:  `The 'tags' command reads a facts.yaml (or facts.json) written by 'run' and prints every fact with the @@NAME@@ placeholder the report template uses for it. Multi-line values are shortened to their first line.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := facts.LoadFile(args[0])
		if err != nil {
			return err
		}
		printTags(cmd.OutOrStdout(), store)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}

func printTags(w io.Writer, store *facts.Store) {
	t := newTable("placeholder", "value")
	for _, k := range store.Keys() {
		v, _ := store.Get(k)
		t.Row(facts.Placeholder(k), firstLine(v, 60))
	}
	fmt.Fprintln(w, t.String())
	fmt.Fprintln(w, faintStyle.Render(fmt.Sprintf("%d facts", store.Len())))
}

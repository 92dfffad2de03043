// cmd/bottleneck/cache.go
package bottleneck

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwiater/bottleneck/internal/cache"
)

// cacheCmd represents the 'cache' command group.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Group commands for inspecting the command cache",
	Long:  `The 'cache' command groups subcommands that inspect or clear the command cache configured under cache.dir. It performs no action on its own.`,
}

// cacheListCmd implements 'cache list'.
var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached command outputs",
	Long:  `The 'list' subcommand lists every cached command output with its section, ordinal, age, recorded duration and size.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		entries, err := cache.List(cfg.Cache.Dir)
		if err != nil {
			return err
		}
		printEntries(cmd.OutOrStdout(), entries, time.Now())
		return nil
	},
}

// cacheClearCmd implements 'cache clear'.
var cacheClearCmd = &cobra.Command{
	Use:   "clear [section...]",
	Short: "Remove cached command outputs",
	Long:  `The 'clear' subcommand removes the cached outputs of the named sections, or of every section when none is named, so the next run executes those commands again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		n, err := cache.Clear(cfg.Cache.Dir, args...)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d cache entries from %s\n", n, cfg.Cache.Dir)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func printEntries(w io.Writer, entries []cache.Entry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "cache is empty")
		return
	}
	t := newTable("section", "ordinal", "age", "took", "bytes")
	for _, e := range entries {
		t.Row(e.Section, fmt.Sprint(e.Ordinal),
			now.Sub(e.Written).Round(time.Second).String(),
			e.Elapsed.Round(time.Millisecond).String(),
			fmt.Sprint(len(e.Output)))
	}
	fmt.Fprintln(w, t.String())
}

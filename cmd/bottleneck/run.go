// cmd/bottleneck/run.go
package bottleneck

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/bottleneck/internal/cache"
	"github.com/mwiater/bottleneck/internal/config"
	"github.com/mwiater/bottleneck/internal/facts"
	"github.com/mwiater/bottleneck/internal/logging"
	"github.com/mwiater/bottleneck/internal/sweep"
	"github.com/mwiater/bottleneck/internal/tui"
)

// Output files written to the run log directory.
const (
	factsFile   = "facts.yaml"
	seriesFile  = "series.json"
	summaryFile = "report.json"
)

type runOptions struct {
	only      []string
	skip      []string
	progress  bool
	factsJSON bool
}

var runOpts runOptions

// runCmd implements 'run', which executes the sweep described by the
// configuration file.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark sweep",
	Long: `The 'run' command builds and runs the configured program through every
section of the sweep in order, then writes facts.yaml, series.json and
report.json to the run's log directory. The first failing section stops
the sweep.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runSweep(cmd.Context(), cmd.OutOrStdout(), cfg, runOpts, viper.GetBool("debug"))
	},
}

func init() {
	runCmd.Flags().StringSliceVar(&runOpts.only, "only", nil, "run only these sections (default: the config's sections, or all)")
	runCmd.Flags().StringSliceVar(&runOpts.skip, "skip", nil, "skip these sections")
	runCmd.Flags().BoolVar(&runOpts.progress, "tui", false, "show an interactive progress view")
	runCmd.Flags().BoolVar(&runOpts.factsJSON, "json", false, "also write the facts as facts.json")
	rootCmd.AddCommand(runCmd)
}

func runSweep(ctx context.Context, w io.Writer, cfg *config.Config, opts runOptions, debug bool) error {
	if debug {
		pp.Fprintln(w, cfg)
	}

	only := opts.only
	if len(only) == 0 {
		only = cfg.Sections
	}
	sections, skipped, err := sweep.Select(only, opts.skip)
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	var console io.Writer = os.Stderr
	if opts.progress {
		console = nil
	}
	run, err := logging.Open(cfg.Log.Dir, cfg.Program, time.Now(), level, console)
	if err != nil {
		return err
	}
	defer run.Close()

	c, err := cache.New(cache.Options{
		Dir:      cfg.Cache.Dir,
		LogDir:   run.Dir,
		Executor: cache.ShellExecutor{Timeout: cfg.Timeout},
		Logger:   run.Logger,
	})
	if err != nil {
		return err
	}

	env := &sweep.Env{
		Cache:       c,
		Logger:      run.Logger,
		LogDir:      run.Dir,
		Timestamp:   run.Timestamp,
		TTL:         cfg.Cache.TTL,
		HardwareTTL: cfg.Cache.HardwareTTL,
	}
	store := facts.FromMap(cfg.Facts())
	runner := &sweep.Runner{Env: env, Sections: sections}

	var rep *sweep.Report
	if opts.progress {
		rep, err = tui.Run(ctx, cfg.Program, runner, store)
	} else {
		rep, err = runner.Run(ctx, store)
	}
	if rep == nil {
		return err
	}
	rep.Skip(skipped...)
	printSummary(w, rep, run.Dir)
	if err != nil {
		// A failed sweep leaves only its logs behind.
		return err
	}
	return writeOutputs(run.Dir, rep, store, opts.factsJSON)
}

func writeOutputs(dir string, rep *sweep.Report, store *facts.Store, withJSON bool) error {
	if err := store.SaveFile(filepath.Join(dir, factsFile)); err != nil {
		return err
	}
	if withJSON {
		if err := store.SaveFile(filepath.Join(dir, "facts.json")); err != nil {
			return err
		}
	}
	if err := rep.WriteSeries(filepath.Join(dir, seriesFile)); err != nil {
		return err
	}
	if err := rep.WriteSummary(filepath.Join(dir, summaryFile)); err != nil {
		return fmt.Errorf("could not write summary: %w", err)
	}
	return nil
}

// cmd/bottleneck/root.go
package bottleneck

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/bottleneck/internal/config"
)

// rootCmd is the base Cobra command for the bt application.
// All subcommands are attached to this root to form the complete CLI.
var rootCmd = &cobra.Command{
	Use:   "bt",
	Short: "Benchmark sweeps for compute-bound programs",
	Long: `bt builds and runs a compute-bound program under varying repetition counts,
problem sizes, thread counts and optimization levels, caches the output of
every command, and writes the measured facts and series for report rendering.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root Cobra command and all registered subcommands.
// An interrupt cancels the running command. Any returned error is printed
// and the process exits with a non-zero status code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultFile, "path to the sweep configuration")
	rootCmd.PersistentFlags().Bool("debug", false, "log at debug level and dump the loaded configuration")
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

// loadConfig reads the configuration named by --config.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetString("config"))
}

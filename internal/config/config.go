// internal/config/config.go
// Package config loads bt.yaml, the description of the workload to sweep.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "bt.yaml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Range is the inclusive problem-size range swept by the scaling section.
type Range struct {
	First     int `mapstructure:"first"`
	Last      int `mapstructure:"last"`
	Increment int `mapstructure:"increment"`
}

// Sizes expands the range into its problem sizes in ascending order.
func (r Range) Sizes() []int {
	var sizes []int
	for n := r.First; n <= r.Last; n += r.Increment {
		sizes = append(sizes, n)
	}
	return sizes
}

// String renders the range the way it appears in the report.
func (r Range) String() string {
	parts := make([]string, 0)
	for _, n := range r.Sizes() {
		parts = append(parts, strconv.Itoa(n))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Cache configures the command cache.
type Cache struct {
	Dir         string        `mapstructure:"dir"`
	TTL         time.Duration `mapstructure:"ttl"`
	HardwareTTL time.Duration `mapstructure:"hardware_ttl"`
}

// Log configures where run logs are written.
type Log struct {
	Dir   string `mapstructure:"dir"`
	Level string `mapstructure:"level"`
}

// Config describes the workload and the sweep to run over it.
type Config struct {
	// Program is the workload binary name; defaults to the basename of Dir.
	Program string `mapstructure:"program"`
	// Dir is the directory the workload is built and run in.
	Dir string `mapstructure:"dir"`
	// Build is the build command template; {0} is replaced by compiler flags.
	Build string `mapstructure:"build"`
	// Clean removes previous build artifacts.
	Clean string `mapstructure:"clean"`
	// Run is the run command template; {0} cores, {1} problem size, {2} program.
	Run string `mapstructure:"run"`
	// CFlags are the flags used when no sweep axis overrides them.
	CFlags string `mapstructure:"cflags"`
	// Count is the number of repetitions in the workload section.
	Count int `mapstructure:"count"`
	// Range is the problem-size sweep.
	Range Range `mapstructure:"range"`
	// Cores is the maximum thread count; 0 means runtime.NumCPU.
	Cores int `mapstructure:"cores"`
	// Processors is the asymptotic processor count of the scaling-law fit.
	Processors int `mapstructure:"processors"`
	// Timeout bounds each external command; 0 disables it.
	Timeout time.Duration `mapstructure:"timeout"`
	// Benchmark is the baseline benchmark command template; {0} is cores.
	Benchmark string `mapstructure:"benchmark"`
	// Sections restricts the run to the named sections, in default order.
	Sections []string `mapstructure:"sections"`

	Cache Cache `mapstructure:"cache"`
	Log   Log   `mapstructure:"log"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("dir", ".")
	v.SetDefault("build", "CFLAGS={0} make")
	v.SetDefault("clean", "make clean")
	v.SetDefault("run", "OMP_NUM_THREADS={0} N={1} ./{2}")
	v.SetDefault("cflags", "-O3")
	v.SetDefault("count", 8)
	v.SetDefault("cores", 0)
	v.SetDefault("processors", 1024)
	v.SetDefault("timeout", 0)
	v.SetDefault("benchmark", "mpirun -np {0} `which hpcc` && cat hpccoutf.txt")
	v.SetDefault("cache.dir", ".bt/cache")
	v.SetDefault("cache.ttl", 0)
	v.SetDefault("cache.hardware_ttl", 24*time.Hour)
	v.SetDefault("log.dir", "~/.bt")
	v.SetDefault("log.level", "debug")
}

// Load reads the configuration file at path into a fresh viper instance,
// applies BT_* environment overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix("bt")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return FromViper(v)
}

// FromViper decodes and validates an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not parse config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	dir, err := filepath.Abs(expandHome(c.Dir))
	if err != nil {
		return fmt.Errorf("%w: dir: %v", ErrInvalid, err)
	}
	c.Dir = dir
	if c.Program == "" {
		c.Program = filepath.Base(c.Dir)
	}
	if c.Cores <= 0 {
		c.Cores = runtime.NumCPU()
	}
	c.Log.Dir = expandHome(c.Log.Dir)
	c.Cache.Dir = expandHome(c.Cache.Dir)
	if c.Cache.Dir != "" && !filepath.IsAbs(c.Cache.Dir) {
		c.Cache.Dir = filepath.Join(c.Dir, c.Cache.Dir)
	}
	return c.Validate()
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	switch {
	case c.Build == "":
		return fmt.Errorf("%w: build is required", ErrInvalid)
	case c.Run == "":
		return fmt.Errorf("%w: run is required", ErrInvalid)
	case c.Count <= 0:
		return fmt.Errorf("%w: count must be positive, got %d", ErrInvalid, c.Count)
	case c.Range.Increment <= 0:
		return fmt.Errorf("%w: range.increment must be positive, got %d", ErrInvalid, c.Range.Increment)
	case c.Range.First <= 0 || c.Range.Last < c.Range.First:
		return fmt.Errorf("%w: range must satisfy 0 < first <= last, got %d..%d", ErrInvalid, c.Range.First, c.Range.Last)
	case c.Processors <= 0:
		return fmt.Errorf("%w: processors must be positive, got %d", ErrInvalid, c.Processors)
	case c.Cache.Dir == "":
		return fmt.Errorf("%w: cache.dir is required", ErrInvalid)
	}
	return nil
}

// Facts returns the configuration as the initial facts of a run.
func (c *Config) Facts() map[string]string {
	return map[string]string{
		"program":    c.Program,
		"dir":        c.Dir,
		"build":      c.Build,
		"clean":      c.Clean,
		"run":        c.Run,
		"cflags":     c.CFlags,
		"count":      strconv.Itoa(c.Count),
		"first":      strconv.Itoa(c.Range.First),
		"last":       strconv.Itoa(c.Range.Last),
		"increment":  strconv.Itoa(c.Range.Increment),
		"range":      c.Range.String(),
		"cores":      strconv.Itoa(c.Cores),
		"processors": strconv.Itoa(c.Processors),
		"benchmark":  c.Benchmark,
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

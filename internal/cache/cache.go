// internal/cache/cache.go
// Package cache memoizes the output of external commands on disk so that
// expensive measurements can be replayed within a freshness window.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Forever is a TTL under which entries never expire.
const Forever time.Duration = -1

// Options configures a Cache.
type Options struct {
	// Dir holds the cache entries; it is created if missing.
	Dir string
	// LogDir receives one <section>.log file per section. Empty disables it.
	LogDir string
	// Executor runs cache misses. Defaults to ShellExecutor.
	Executor Executor
	// Now is the clock used for timestamps. Defaults to time.Now.
	Now func() time.Time
	// Logger receives hit/miss diagnostics. Defaults to a discarding logger.
	Logger *slog.Logger
}

// Cache is the on-disk command cache shared by all sections of a run.
type Cache struct {
	dir    string
	logDir string
	exec   Executor
	now    func() time.Time
	log    *slog.Logger
}

// New prepares the cache and log directories.
func New(opts Options) (*Cache, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create cache directory: %w", err)
	}
	if opts.LogDir != "" {
		if err := os.MkdirAll(opts.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create log directory: %w", err)
		}
	}
	c := &Cache{
		dir:    opts.Dir,
		logDir: opts.LogDir,
		exec:   opts.Executor,
		now:    opts.Now,
		log:    opts.Logger,
	}
	if c.exec == nil {
		c.exec = ShellExecutor{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.log == nil {
		c.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Now returns the cache clock's current time.
func (c *Cache) Now() time.Time { return c.now() }

// Session returns a per-section handle. Every Run on the session takes the
// next ordinal, so repeated commands in one section get distinct slots.
// A ttl of 0 always re-runs, Forever never expires.
func (c *Cache) Session(section string, ttl time.Duration) *Session {
	return &Session{cache: c, section: section, ttl: ttl}
}

// Session is the cache as seen by one section.
type Session struct {
	cache   *Cache
	section string
	ttl     time.Duration
	ordinal int
}

// Section returns the section name.
func (s *Session) Section() string { return s.section }

// Ordinal returns the number of Run calls made so far.
func (s *Session) Ordinal() int { return s.ordinal }

// Run returns the trimmed output of command, replaying a fresh cache entry
// when there is one. Errors from the executor, including nonzero exits,
// are returned unchanged and nothing is cached for them.
func (s *Session) Run(ctx context.Context, command string) (string, error) {
	output, _, err := s.Measure(ctx, command)
	return output, err
}

// Measure is Run that also reports how long the command took. A replayed
// entry reports the duration recorded when it was captured, so timings
// survive cache hits.
func (s *Session) Measure(ctx context.Context, command string) (string, time.Duration, error) {
	c := s.cache
	ordinal := s.ordinal
	s.ordinal++

	id := Identity(s.section, ordinal, command)
	path := filepath.Join(c.dir, entryName(s.section, ordinal, id))

	e, hit := s.lookup(path, id)
	if !hit {
		c.log.Debug("cache miss", "section", s.section, "ordinal", ordinal, "command", command)
		start := c.now()
		raw, err := c.exec.Execute(ctx, command)
		if err != nil {
			return "", 0, err
		}
		end := c.now()
		e = Entry{
			Section:  s.section,
			Ordinal:  ordinal,
			Identity: id,
			Written:  end,
			Elapsed:  end.Sub(start),
			Output:   strings.TrimRightFunc(string(raw), unicode.IsSpace),
		}
		if err := writeEntry(path, e); err != nil {
			return "", 0, err
		}
	}

	if c.logDir != "" {
		logPath := filepath.Join(c.logDir, s.section+".log")
		if err := os.WriteFile(logPath, []byte(e.Output), 0o644); err != nil {
			return "", 0, fmt.Errorf("could not write section log: %w", err)
		}
	}
	return e.Output, e.Elapsed, nil
}

func (s *Session) lookup(path, id string) (Entry, bool) {
	c := s.cache
	if s.ttl == 0 {
		return Entry{}, false
	}
	e, err := readEntry(path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Debug("discarding unreadable cache entry", "path", path, "error", err)
		}
		return Entry{}, false
	}
	if e.Identity != id {
		c.log.Debug("discarding cache entry with foreign identity", "path", path)
		return Entry{}, false
	}
	age := c.now().Sub(e.Written)
	if s.ttl > 0 && age > s.ttl {
		c.log.Debug("cache entry expired", "path", path, "age", age, "ttl", s.ttl)
		return Entry{}, false
	}
	c.log.Debug("cache hit", "section", s.section, "ordinal", e.Ordinal, "age", age)
	return e, true
}

// Identity is the stable key of a measurement slot.
func Identity(section string, ordinal int, command string) string {
	h := sha256.New()
	io.WriteString(h, section)
	h.Write([]byte{0})
	io.WriteString(h, strconv.Itoa(ordinal))
	h.Write([]byte{0})
	io.WriteString(h, command)
	return hex.EncodeToString(h.Sum(nil))
}

func entryName(section string, ordinal int, id string) string {
	return fmt.Sprintf("%s.%d.%s%s", section, ordinal, id[:12], entryExt)
}

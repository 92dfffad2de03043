// internal/cache/entry.go
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	entryExt   = ".cache"
	entryMagic = "bt-cache 1"
)

var errCorrupt = errors.New("corrupt cache entry")

// Entry is one captured command output.
type Entry struct {
	Path     string    `json:"path"`
	Section  string    `json:"section"`
	Ordinal  int       `json:"ordinal"`
	Identity string    `json:"identity"`
	Written  time.Time `json:"written"`

	// Elapsed is how long the command took when it was captured.
	Elapsed time.Duration `json:"elapsed"`
	Output  string        `json:"-"`
}

// An entry file is a short header, a blank line, then the raw output:
//
//	bt-cache 1
//	section: workload
//	ordinal: 3
//	identity: <sha256>
//	written: 2006-01-02T15:04:05.999999999Z07:00
//	elapsed: 1.5s
//	length: 1234
//
//	<output>
func (e Entry) encode() []byte {
	var b strings.Builder
	b.WriteString(entryMagic + "\n")
	fmt.Fprintf(&b, "section: %s\n", e.Section)
	fmt.Fprintf(&b, "ordinal: %d\n", e.Ordinal)
	fmt.Fprintf(&b, "identity: %s\n", e.Identity)
	fmt.Fprintf(&b, "written: %s\n", e.Written.Format(time.RFC3339Nano))
	fmt.Fprintf(&b, "elapsed: %s\n", e.Elapsed)
	fmt.Fprintf(&b, "length: %d\n", len(e.Output))
	b.WriteString("\n")
	b.WriteString(e.Output)
	return []byte(b.String())
}

func decodeEntry(data []byte) (Entry, error) {
	s := string(data)
	head, body, ok := strings.Cut(s, "\n\n")
	if !ok {
		return Entry{}, fmt.Errorf("%w: no header terminator", errCorrupt)
	}
	lines := strings.Split(head, "\n")
	if lines[0] != entryMagic {
		return Entry{}, fmt.Errorf("%w: bad magic %q", errCorrupt, lines[0])
	}

	var e Entry
	length := -1
	for _, line := range lines[1:] {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			return Entry{}, fmt.Errorf("%w: bad header line %q", errCorrupt, line)
		}
		var err error
		switch key {
		case "section":
			e.Section = value
		case "ordinal":
			e.Ordinal, err = strconv.Atoi(value)
		case "identity":
			e.Identity = value
		case "written":
			e.Written, err = time.Parse(time.RFC3339Nano, value)
		case "elapsed":
			e.Elapsed, err = time.ParseDuration(value)
		case "length":
			length, err = strconv.Atoi(value)
		}
		if err != nil {
			return Entry{}, fmt.Errorf("%w: %s: %v", errCorrupt, key, err)
		}
	}
	if e.Written.IsZero() || e.Identity == "" {
		return Entry{}, fmt.Errorf("%w: incomplete header", errCorrupt)
	}
	if length != len(body) {
		return Entry{}, fmt.Errorf("%w: length %d, have %d bytes", errCorrupt, length, len(body))
	}
	e.Output = body
	return e, nil
}

func readEntry(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}
	e, err := decodeEntry(data)
	if err != nil {
		return Entry{}, err
	}
	e.Path = path
	return e, nil
}

func writeEntry(path string, e Entry) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, e.encode(), 0o644); err != nil {
		return fmt.Errorf("could not write cache entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("could not commit cache entry: %w", err)
	}
	return nil
}

// List returns every readable entry in dir, ordered by section then ordinal.
// Unreadable entries are skipped.
func List(dir string) ([]Entry, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+entryExt))
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for _, p := range paths {
		e, err := readEntry(p)
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Section != entries[j].Section {
			return entries[i].Section < entries[j].Section
		}
		return entries[i].Ordinal < entries[j].Ordinal
	})
	return entries, nil
}

// Clear removes the cache entries of the given sections from dir, or every
// entry when no section is named. It returns the number of files removed.
func Clear(dir string, sections ...string) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+entryExt))
	if err != nil {
		return 0, err
	}
	want := map[string]bool{}
	for _, s := range sections {
		want[s] = true
	}
	removed := 0
	for _, p := range paths {
		if len(want) > 0 {
			name, _, _ := strings.Cut(filepath.Base(p), ".")
			if !want[name] {
				continue
			}
		}
		if err := os.Remove(p); err != nil {
			return removed, fmt.Errorf("could not remove %s: %w", p, err)
		}
		removed++
	}
	return removed, nil
}

// internal/facts/facts.go
// Package facts holds the flat name→value map that every section fills in
// and the report renderer consumes at the end of a run.
package facts

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strconv"
	"strings"
)

// ErrMissing is returned when a required fact has not been produced yet.
var ErrMissing = errors.New("missing fact")

// Bucket is the private output of one section, merged into the Store by the
// runner once the section has finished.
type Bucket map[string]string

// Set records key=value in the bucket.
func (b Bucket) Set(key, value string) { b[key] = value }

// Merge copies every entry of m into the bucket.
func (b Bucket) Merge(m map[string]string) {
	for k, v := range m {
		b[k] = v
	}
}

// Keys returns the bucket keys in ascending order.
func (b Bucket) Keys() []string { return sortedKeys(b) }

// Store is the fact map for a single sweep run. It is not safe for
// concurrent use; the sweep runs sections one at a time.
type Store struct {
	m map[string]string
}

// New returns an empty store.
func New() *Store {
	return &Store{m: make(map[string]string)}
}

// FromMap returns a store seeded with a copy of m.
func FromMap(m map[string]string) *Store {
	s := New()
	maps.Copy(s.m, m)
	return s
}

// Set records key=value, overwriting any earlier value.
func (s *Store) Set(key, value string) { s.m[key] = value }

// Get returns the value of key and whether it exists.
func (s *Store) Get(key string) (string, bool) {
	v, ok := s.m[key]
	return v, ok
}

// Merge copies a section's bucket into the store.
func (s *Store) Merge(b Bucket) {
	for k, v := range b {
		s.m[k] = v
	}
}

// Require reports every key in keys that is absent from the store.
func (s *Store) Require(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if _, ok := s.m[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	return nil
}

// Len returns the number of facts.
func (s *Store) Len() int { return len(s.m) }

// Keys returns the fact names in ascending order.
func (s *Store) Keys() []string { return sortedKeys(s.m) }

// Map returns a copy of the facts.
func (s *Store) Map() map[string]string { return maps.Clone(s.m) }

// Snapshot returns a read-only copy of the current facts.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{m: maps.Clone(s.m)}
}

// Snapshot is an immutable view of the store taken before a section runs.
type Snapshot struct {
	m map[string]string
}

// Get returns the value of key and whether it exists.
func (s Snapshot) Get(key string) (string, bool) {
	v, ok := s.m[key]
	return v, ok
}

// String returns the value of key or an ErrMissing error.
func (s Snapshot) String(key string) (string, error) {
	v, ok := s.m[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissing, key)
	}
	return v, nil
}

// Int parses the value of key as a base-10 integer.
func (s Snapshot) Int(key string) (int, error) {
	v, err := s.String(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("fact %s=%q is not an integer: %w", key, v, err)
	}
	return n, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

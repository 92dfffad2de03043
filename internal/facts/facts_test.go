// internal/facts/facts_test.go
package facts

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestStore_SetOverwrites(t *testing.T) {
	s := New()
	s.Set("cores", "2")
	s.Set("cores", "4")
	if v, _ := s.Get("cores"); v != "4" {
		t.Fatalf("expected later write to win, got %q", v)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 fact, got %d", s.Len())
	}
}

func TestStore_RequireReportsAllMissing(t *testing.T) {
	s := New()
	s.Set("program", "matrix")
	err := s.Require("program", "build", "cores")
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
	if !strings.Contains(err.Error(), "build") || !strings.Contains(err.Error(), "cores") {
		t.Fatalf("error should name missing keys: %v", err)
	}
	if err := s.Require("program"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSnapshot_IsIsolated(t *testing.T) {
	s := New()
	s.Set("count", "8")
	snap := s.Snapshot()
	s.Set("count", "16")
	if v, _ := snap.Get("count"); v != "8" {
		t.Fatalf("snapshot changed after store write: %q", v)
	}
	n, err := snap.Int("count")
	if err != nil || n != 8 {
		t.Fatalf("Int: %d, %v", n, err)
	}
	if _, err := snap.String("nope"); !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
}

func TestSnapshot_IntRejectsText(t *testing.T) {
	s := New()
	s.Set("count", "many")
	if _, err := s.Snapshot().Int("count"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestStore_MergeBucket(t *testing.T) {
	s := New()
	s.Set("geomean", "old")
	b := Bucket{}
	b.Set("geomean", "1.00000")
	b.Merge(map[string]string{"stddev": "0.00000"})
	s.Merge(b)
	if v, _ := s.Get("geomean"); v != "1.00000" {
		t.Fatalf("bucket did not overwrite: %q", v)
	}
	keys := s.Keys()
	if len(keys) != 2 || keys[0] != "geomean" || keys[1] != "stddev" {
		t.Fatalf("unexpected keys: %v", keys)
	}
	if got := b.Keys(); len(got) != 2 {
		t.Fatalf("unexpected bucket keys: %v", got)
	}
}

func TestPlaceholder(t *testing.T) {
	if got := Placeholder("hpcc-hpl"); got != "@@HPCC-HPL@@" {
		t.Fatalf("unexpected placeholder %q", got)
	}
}

func TestStore_YAMLRoundTrip(t *testing.T) {
	s := New()
	s.Set("geomean", "2.00000")
	s.Set("hardware", "line one\nline two")
	s.Set("success", "1 None")

	var buf bytes.Buffer
	if err := s.WriteYAML(&buf); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	if !strings.Contains(buf.String(), "geomean:") {
		t.Fatalf("unexpected yaml: %s", buf.String())
	}

	dir := t.TempDir()
	for _, name := range []string{"facts.yaml", "facts.json"} {
		path := filepath.Join(dir, name)
		if err := s.SaveFile(path); err != nil {
			t.Fatalf("SaveFile(%s): %v", name, err)
		}
		got, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile(%s): %v", name, err)
		}
		for _, k := range s.Keys() {
			want, _ := s.Get(k)
			if v, _ := got.Get(k); v != want {
				t.Fatalf("%s: %s = %q, want %q", name, k, v, want)
			}
		}
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

// internal/metrics/extract.go
// Package metrics turns free-form tool output into named, unit-annotated values.
package metrics

import (
	"regexp"
	"sort"
)

const (
	// Unknown is the value recorded when a rule's pattern does not match.
	Unknown = "Unknown"
	// NoUnit is how a missing unit is rendered.
	NoUnit = "None"
)

// Rule extracts one named metric: the first capture group of Pattern is the
// value, Unit is appended when rendering. An empty Unit means unit-less.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Unit    string
}

// MustRule compiles pattern into a Rule and panics if it is invalid.
// It is meant for the static rule tables below.
func MustRule(name, pattern, unit string) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(pattern), Unit: unit}
}

// Apply evaluates the rule against text and returns the rendered value,
// "<value> <unit>" on a match and "Unknown None" otherwise.
func (r Rule) Apply(text string) string {
	m := r.Pattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return Unknown + " " + NoUnit
	}
	unit := r.Unit
	if unit == "" {
		unit = NoUnit
	}
	return m[1] + " " + unit
}

// Extract applies every rule to the whole text independently. Every rule
// yields an entry, so the result always has len(rules) keys.
func Extract(text string, rules []Rule) map[string]string {
	out := make(map[string]string, len(rules))
	for _, r := range rules {
		out[r.Name] = r.Apply(text)
	}
	return out
}

// Namespace prefixes every key of m with "<source>-".
func Namespace(source string, m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[source+"-"+k] = v
	}
	return out
}

// Names returns the rule names in table order.
func Names(rules []Rule) []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return names
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

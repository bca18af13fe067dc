// Package keywords extracts search keywords from free text using simple
// heuristics. It is deterministic and fully local — no model calls.
//
// This is an approximation, not production-quality extraction; a real
// deployment would reach for RAKE or LLM-based extraction.
package keywords

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultMax is the keyword cap applied when callers pass max <= 0.
const DefaultMax = 10

// tokenPattern matches alphabetic tokens of length >= 4 after lowercasing.
var tokenPattern = regexp.MustCompile(`\b[a-z]{4,}\b`)

// stopWords are common filler words excluded from results.
var stopWords = map[string]struct{}{
	"that": {}, "this": {}, "with": {}, "from": {}, "have": {}, "been": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "about": {},
	"their": {}, "there": {}, "these": {}, "those": {}, "which": {},
	"where": {}, "when": {}, "what": {}, "them": {}, "they": {},
	"than": {}, "then": {},
}

// Extract returns up to max keywords from text, longest first.
// Longer tokens tend to be more specific, so ordering is by descending
// length with a lexicographic tie-break for determinism.
func Extract(text string, max int) []string {
	if text == "" {
		return []string{}
	}
	if max <= 0 {
		max = DefaultMax
	}

	seen := make(map[string]struct{})
	var out []string
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}

	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})

	if len(out) > max {
		out = out[:max]
	}
	if out == nil {
		out = []string{}
	}
	return out
}

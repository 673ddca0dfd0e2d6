// Package tagging provides tag-set arithmetic used to cluster concepts on
// the grid.
package tagging

import (
	"sort"
	"strings"
)

// tagSet builds a membership set from a tag slice, collapsing duplicates.
func tagSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, s := range tags {
		set[s] = true
	}
	return set
}

// Overlap returns the cardinality of the intersection of the two tag sets.
// Duplicates within either slice are counted once.
func Overlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setB := tagSet(b)
	n := 0
	for s := range tagSet(a) {
		if setB[s] {
			n++
		}
	}
	return n
}

// JaccardSimilarity computes the Jaccard index between two string slices.
// Returns 0.0 if both are empty.
func JaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0.0
	}

	setA := tagSet(a)
	setB := tagSet(b)
	intersection := Overlap(a, b)

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}

// IntersectTags returns the intersection of two tag slices, preserving order of the first slice.
func IntersectTags(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}

	setB := tagSet(b)
	seen := make(map[string]bool, len(a))

	var result []string
	for _, s := range a {
		if setB[s] && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	return result
}

// ParseList splits a comma-separated tag list, trimming whitespace and
// dropping empty and duplicate entries. The result is sorted; nil when no
// tags remain.
func ParseList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	seen := make(map[string]bool)
	var tags []string
	for _, part := range strings.Split(s, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	sort.Strings(tags)
	return tags
}

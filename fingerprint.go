package reagent

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"unicode"
)

// FingerprintTerms normalizes a task description into its term set:
// lowercased, split on anything that is not a letter or digit, deduplicated
// and sorted. The term set is what similarity recall compares.
func FingerprintTerms(description string) []string {
	fields := strings.FieldsFunc(strings.ToLower(description), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := map[string]bool{}
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	sort.Strings(terms)
	return terms
}

// Fingerprint computes a stable digest of the normalized task description.
// Tasks that differ only in casing, punctuation or word order share a
// fingerprint.
func Fingerprint(description string) string {
	terms := FingerprintTerms(description)
	sum := sha256.Sum256([]byte(strings.Join(terms, " ")))
	return hex.EncodeToString(sum[:])
}

// Similarity computes the Jaccard similarity of two term sets in [0,1].
// Both inputs are expected to be deduplicated, as FingerprintTerms returns.
func Similarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}

	intersection := 0
	for _, t := range b {
		if set[t] {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

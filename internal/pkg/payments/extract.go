package payments

import "strings"

// referenceStrategy reads one candidate location of the order reference.
type referenceStrategy[T any] struct {
	name string
	get  func(T) string
}

// extractReference tries the strategies in order and returns the first
// non-empty reference together with the name of the strategy that found it.
func extractReference[T any](payload T, strategies []referenceStrategy[T]) (string, string) {
	for _, s := range strategies {
		if ref := strings.TrimSpace(s.get(payload)); ref != "" {
			return ref, s.name
		}
	}
	return "", ""
}

// firstNonEmpty returns the first value that is not blank.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

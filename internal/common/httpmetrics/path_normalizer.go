package httpmetrics

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// NormalizePath collapses identifier segments so unmatched paths cannot grow
// label cardinality. Used when no chi route pattern is available.
func NormalizePath(path string) string {
	path = strings.TrimRight(path, "/")
	if path == "" {
		return "/"
	}

	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if isIdentifier(seg) {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

func isIdentifier(seg string) bool {
	if seg == "" {
		return false
	}
	if _, err := strconv.ParseUint(seg, 10, 64); err == nil {
		return true
	}
	return len(seg) == 36 && uuid.Validate(seg) == nil
}

package catalog

import (
	"strconv"
	"strings"
)

const truncateMarker = "truncate_at_"

// ParseTruncation reads the truncation window from a category name. The last
// occurrence of "truncate_at_" wins, and the digits after it, up to the next
// '/', must form a complete decimal integer.
//
//	ParseTruncation("face_truncate_at_42")   // 42, true
//	ParseTruncation("a/truncate_at_3/b")     // 3, true
//	ParseTruncation("truncate_at_")          // 0, false
//	ParseTruncation("truncate_at_5x")        // 0, false
func ParseTruncation(dirname string) (int, bool) {
	idx := strings.LastIndex(dirname, truncateMarker)
	if idx < 0 {
		return 0, false
	}
	rest := dirname[idx+len(truncateMarker):]
	if end := strings.IndexByte(rest, '/'); end >= 0 {
		rest = rest[:end]
	}
	if rest == "" {
		return 0, false
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// WindowFor returns the GeneratePairs window to use for dirname.
func WindowFor(dirname string) int {
	if n, ok := ParseTruncation(dirname); ok {
		return n
	}
	return NoWindow
}

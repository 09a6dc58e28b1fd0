// Package catalog turns a tree of images into ordered comparison pairs:
// enumerating image references, grouping them by category and pairing
// them under an optional truncation window.
package catalog

import (
	"context"
	"net/url"
	"strings"
)

// Source enumerates every image reference under the catalog root. A
// reference is the relative path with each segment percent-encoded and
// joined by '/'. Order is unspecified.
type Source interface {
	Scan(ctx context.Context) ([]string, error)
}

func encodeSegment(segment string) string {
	return url.PathEscape(segment)
}

func joinRef(dirname, segment string) string {
	if dirname == "" {
		return segment
	}
	return dirname + "/" + segment
}

// Category returns the dirname of ref: everything before the last '/', or
// "" for an image directly under the root.
func Category(ref string) string {
	idx := strings.LastIndexByte(ref, '/')
	if idx < 0 {
		return ""
	}
	return ref[:idx]
}

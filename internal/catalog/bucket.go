package catalog

import (
	"context"
	"fmt"
	"strings"
)

// ObjectLister lists object keys below a prefix, recursively.
type ObjectLister interface {
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// BucketSource scans an object-storage bucket instead of a directory. Keys
// are taken relative to Prefix; directory marker objects are ignored.
type BucketSource struct {
	Lister ObjectLister
	Prefix string
}

func NewBucketSource(lister ObjectLister, prefix string) *BucketSource {
	return &BucketSource{Lister: lister, Prefix: normalizePrefix(prefix)}
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

func (s *BucketSource) Scan(ctx context.Context) ([]string, error) {
	keys, err := s.Lister.ListKeys(ctx, s.Prefix)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	refs := make([]string, 0, len(keys))
	for _, key := range keys {
		rel := strings.TrimPrefix(key, s.Prefix)
		if rel == "" || strings.HasSuffix(rel, "/") {
			continue
		}
		segments := strings.Split(rel, "/")
		for i, segment := range segments {
			segments[i] = encodeSegment(segment)
		}
		refs = append(refs, strings.Join(segments, "/"))
	}
	return refs, nil
}

// ObjectKey maps a decoded public path back to the object key it came from.
func (s *BucketSource) ObjectKey(decodedPath string) string {
	return s.Prefix + strings.TrimPrefix(decodedPath, "/")
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Comparison is one ordered pair of images from the same category. Rows are
// written once by a generation run and never updated.
type Comparison struct {
	ID        uuid.UUID
	Dirname   string
	Images    [2]string
	CreatedAt time.Time
	CreatedBy int64
}

// HasImage reports whether ref is one of the two images of this comparison.
func (c Comparison) HasImage(ref string) bool {
	return c.Images[0] == ref || c.Images[1] == ref
}

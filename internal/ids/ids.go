package ids

import "github.com/segmentio/ksuid"

// New returns a time-sortable identifier for votes and jobs.
func New() string {
	return ksuid.New().String()
}

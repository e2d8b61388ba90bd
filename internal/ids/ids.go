package ids

import "github.com/segmentio/ksuid"

// New returns a k-sortable unique id for persisted records.
func New() string {
	return ksuid.New().String()
}

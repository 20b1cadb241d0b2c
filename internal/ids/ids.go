package ids

import "github.com/segmentio/ksuid"

// New returns a K-sortable unique id. Used for accounts, documents and
// sessions so listings ordered by id follow creation order.
func New() string {
	return ksuid.New().String()
}

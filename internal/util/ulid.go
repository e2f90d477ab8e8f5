package util

import "github.com/oklog/ulid/v2"

// NewULID generates a new lexicographically sortable id.
func NewULID() string {
	return ulid.Make().String()
}

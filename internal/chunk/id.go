package chunk

import "github.com/google/uuid"

// NewID returns an opaque identifier unique within a run.
func NewID() string {
	return uuid.New().String()
}

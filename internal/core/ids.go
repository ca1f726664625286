package core

import "github.com/google/uuid"

// NewID returns a random (v4) identifier for a new entity.
func NewID() string {
	return uuid.NewString()
}

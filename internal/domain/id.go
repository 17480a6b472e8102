package domain

import "github.com/google/uuid"

// NewID generates a new UUIDv7 identifier. UUIDv7 is time-ordered, which keeps
// listings roughly in submission order.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the random source is broken.
		return uuid.New().String()
	}
	return id.String()
}

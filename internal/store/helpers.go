package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record does not exist for the tenant.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write conflicts with the record's state.
var ErrConflict = errors.New("conflict")

// TimeLayout is the wire format for every timestamp the stub emits.
const TimeLayout = time.RFC3339

// now returns the current UTC time in TimeLayout.
func now() string {
	return time.Now().UTC().Format(TimeLayout)
}

func newID() string {
	return uuid.NewString()
}

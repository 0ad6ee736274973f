package core

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is the generated identity for locally-owned rows (schedules, proposals,
// runs, audit entries). Employee and event identities are natural keys owned
// by their own packages.
type ID string

func (i ID) String() string {
	return string(i)
}

func (i ID) IsZero() bool {
	return i == ""
}

// NewID generates a new random ID.
func NewID() (ID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return ID(id.String()), nil
}

// MustNewID generates a new ID, panicking if the random source fails.
func MustNewID() ID {
	id, err := NewID()
	if err != nil {
		panic(err)
	}
	return id
}

// ParseID validates that raw is a well-formed generated ID.
func ParseID(raw string) (ID, error) {
	if _, err := uuid.Parse(raw); err != nil {
		return "", fmt.Errorf("parse id %q: %w", raw, err)
	}
	return ID(raw), nil
}

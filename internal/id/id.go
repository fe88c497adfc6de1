package id

import "github.com/google/uuid"

// GenerateID creates a random (version 4) UUID for a practice session.
func GenerateID() string {
	return uuid.NewString()
}

// Valid reports whether s has the shape of an ID produced by GenerateID.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

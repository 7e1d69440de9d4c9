package models

import "github.com/google/uuid"

// NewUUID returns a random identifier string
func NewUUID() string {
	return uuid.New().String()
}

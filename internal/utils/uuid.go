package utils

import "github.com/google/uuid"

// UUIDGenerator mints the identifiers used for certificate serials and vault
// item ids. Version 7 keeps them time-ordered, which makes serial listings
// and item indexes naturally chronological.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// Generate returns a UUIDv7 string, falling back to a random v4 when the
// clock-based generator fails.
func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}

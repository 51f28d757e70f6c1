package models

import (
	"errors"
	"time"
)

// ErrUnknownExpiryPreset is returned when a caller supplies an expiry preset
// outside the supported set.
var ErrUnknownExpiryPreset = errors.New("unknown expiry preset")

// expiryPresets maps the caller-facing preset labels to absolute durations.
var expiryPresets = map[string]time.Duration{
	"10m": 10 * time.Minute,
	"1h":  time.Hour,
	"1d":  24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
}

// ExpiryFromPreset resolves a preset label into an absolute expiry computed
// from now. Returns [ErrUnknownExpiryPreset] for unsupported labels.
func ExpiryFromPreset(preset string, now time.Time) (time.Time, error) {
	d, ok := expiryPresets[preset]
	if !ok {
		return time.Time{}, ErrUnknownExpiryPreset
	}

	return now.Add(d), nil
}

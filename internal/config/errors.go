package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid. All of them are fatal:
// the process must not start with a weakened configuration.
var (
	// ErrInvalidMasterSecret indicates that the master secret is missing or
	// is not exactly 64 hex characters (32 bytes).
	ErrInvalidMasterSecret = errors.New("invalid master secret configuration")
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, an empty DSN).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidServerConfigs indicates invalid server settings
	// (for example, a missing listen address).
	ErrInvalidServerConfigs = errors.New("invalid server configuration")
	// ErrInvalidAppConfigs indicates invalid application-level settings
	// (for example, a missing token verification key).
	ErrInvalidAppConfigs = errors.New("invalid app configuration")
)

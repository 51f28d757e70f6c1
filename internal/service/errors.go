package service

import "errors"

var (
	// ErrAlreadyInitialized is returned when InitCA finds (or races against)
	// an existing root. The losing caller gets this, never a partial root.
	ErrAlreadyInitialized = errors.New("certificate authority is already initialized")

	// ErrCANotInitialized is returned by operations that need a root before
	// one exists.
	ErrCANotInitialized = errors.New("certificate authority is not initialized")

	// ErrNotFound is returned when a requested entity (certificate, vault
	// item, identity keys) does not exist.
	ErrNotFound = errors.New("requested entity was not found")

	// ErrAccessDenied is returned when the caller holds no wrapped content
	// key for the vault item it is trying to decrypt.
	ErrAccessDenied = errors.New("access to the requested entity is denied")

	// ErrShareLinkExpired is returned when a bearer presents a token for a
	// link past its expiry. Indistinguishable payloads aside, expired and
	// unknown tokens both refuse access.
	ErrShareLinkExpired = errors.New("share link is expired")

	// ErrInvalidDataProvided is returned when a request is missing required
	// fields or carries malformed values.
	ErrInvalidDataProvided = errors.New("invalid data provided")

	// ErrNoActiveCertificate is returned when signing or renewal requires an
	// active certificate and the subject has none.
	ErrNoActiveCertificate = errors.New("subject has no active certificate")
)

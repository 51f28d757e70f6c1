package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrCARootExists is returned when InitCA loses the creation race: the
	// singleton root row already exists in the database.
	ErrCARootExists = errors.New("certificate authority root already exists")

	// ErrCARootNotFound is returned when the root row is requested before
	// the authority has been initialized.
	ErrCARootNotFound = errors.New("certificate authority root was not found")

	// ErrCertificateNotFound is returned when a query targets a certificate
	// serial that does not exist in the database.
	ErrCertificateNotFound = errors.New("certificate was not found")

	// ErrActiveCertificateNotFound is returned when a subject has no
	// certificate in the active status.
	ErrActiveCertificateNotFound = errors.New("active certificate was not found")

	// ErrActiveCertificateExists is returned when inserting an active
	// certificate violates the one-active-per-subject constraint, i.e. a
	// concurrent issuance or renewal won the race.
	ErrActiveCertificateExists = errors.New("subject already has an active certificate")

	// ErrIdentityKeysNotFound is returned when an identity has no stored key
	// material.
	ErrIdentityKeysNotFound = errors.New("identity key material was not found")

	// ErrVaultItemNotFound is returned when a vault item id does not exist.
	ErrVaultItemNotFound = errors.New("vault item was not found")

	// ErrWrappedKeyNotFound is returned when a vault item exists but carries
	// no wrapped content key for the requesting recipient.
	ErrWrappedKeyNotFound = errors.New("wrapped content key was not found")

	// ErrShareLinkNotFound is returned when no share link matches the
	// presented token hash.
	ErrShareLinkNotFound = errors.New("share link was not found")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")
)

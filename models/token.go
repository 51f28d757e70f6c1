package models

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Administrative role values carried in the token "role" claim. Issuance of
// these tokens happens in the external auth collaborator; this process only
// reads them.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Token wraps a JWT identity token issued by the external auth collaborator.
//
// It embeds [jwt.Token] for low-level token operations (signing, parsing)
// and [jwt.RegisteredClaims] for standard claim access (subject, expiry, etc.).
//
// IdentityID is a cached, parsed copy of the "sub" (subject) claim converted
// to int64, populated during parsing to avoid repeated string-to-int work.
type Token struct {
	// Token is the underlying JWT token used for signing and claim inspection.
	// Excluded from JSON serialization because only the compact string form
	// is meaningful outside the server process.
	*jwt.Token `json:"-"`

	// RegisteredClaims provides access to the standard JWT claim set
	// (sub, exp, iat, nbf, iss, aud, jti) as defined by RFC 7519.
	jwt.RegisteredClaims

	// Role is the caller's role claim; admin-only PKI operations check it.
	Role string `json:"role,omitempty"`

	// SignedString is the compact JWS representation of the token
	// (base64url-encoded header.payload.signature).
	SignedString string `json:"-"`

	// IdentityID is the caller identifier extracted from the "sub" claim.
	IdentityID int64 `json:"-"`
}

// GetIdentityID extracts the identity identifier from the token's "sub"
// (subject) claim, parses it as a base-10 int64, and returns the result.
//
// Returns an error if the subject claim is missing, empty, or cannot be
// converted to int64.
func (t *Token) GetIdentityID() (int64, error) {
	subject, err := t.GetSubject()
	if err != nil {
		return 0, fmt.Errorf("error extracting identity from token: %w", err)
	}

	identityID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("error converting token subject to int64: %w", err)
	}

	return identityID, nil
}

// String returns the compact JWS serialization of the token.
// It implements the [fmt.Stringer] interface.
func (t *Token) String() string {
	return t.SignedString
}

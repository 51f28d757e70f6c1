package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MKhiriev/vaultwire/models"
)

// GenerateJWTToken creates a signed HMAC-SHA256 JWT identity token.
//
// Token issuance belongs to the external auth collaborator; this helper
// exists for tests and the smoke client, which play that collaborator's part.
//
// The token includes the following claims:
//   - Issuer    (iss): identifies the service that issued the token
//   - Subject   (sub): the identity ID encoded as a string
//   - IssuedAt  (iat): the current time
//   - ExpiresAt (exp): the current time plus tokenDuration
//   - role:            the caller's role ("user" or "admin")
//
// All parameters are required. Returns an error if any of them are empty or zero.
func GenerateJWTToken(issuer string, identityID int64, role string, tokenDuration time.Duration, signKey string) (models.Token, error) {
	if issuer == "" || role == "" || tokenDuration == 0 || signKey == "" {
		return models.Token{}, errors.New("invalid params for generating JWT Token")
	}

	now := time.Now()
	claims := &models.Token{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(identityID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(signKey))
	if err != nil {
		return models.Token{}, fmt.Errorf("error occurred during signing JWT token: %w", err)
	}

	return models.Token{Token: token, Role: role, SignedString: tokenString, IdentityID: identityID}, nil
}

// ValidateAndParseJWTToken validates the given JWT token string and extracts
// its claims.
//
// Validation includes:
//   - Signature verification using the provided sign key
//   - Issuer (iss) claim check against the provided tokenIssuer
//   - Expiration (exp) claim check
//   - Subject (sub) claim presence and conversion to int64 IdentityID
//
// Returns a populated [models.Token] or an error if validation fails, claims
// are missing, or the subject cannot be parsed.
func ValidateAndParseJWTToken(tokenString, tokenSignKey, tokenIssuer string) (models.Token, error) {
	parsed := &models.Token{}
	token, err := jwt.ParseWithClaims(tokenString, parsed, func(token *jwt.Token) (any, error) {
		return []byte(tokenSignKey), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return models.Token{}, fmt.Errorf("error occurred validating and parsing token: %w", err)
	}

	identityID, err := parsed.GetIdentityID()
	if err != nil {
		return models.Token{}, fmt.Errorf("error occurred extracting identity from token: %w", err)
	}

	return models.Token{Token: token, RegisteredClaims: parsed.RegisteredClaims, Role: parsed.Role, IdentityID: identityID}, nil
}

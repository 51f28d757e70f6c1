// Package utils provides general-purpose helper utilities
// used across different parts of the application.
// Includes tools for working with context, type-safe keys, JWT token
// validation, and identifier generation.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
// Using a dedicated type instead of a plain string prevents key collisions
// with other packages that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
// Implements the fmt.Stringer interface.
func (c contextKey) String() string {
	return string(c)
}

// IdentityIDCtxKey is the key used to store the caller identity identifier in
// the context. Used together with GetIdentityIDFromContext for type-safe
// retrieval of the identity ID from context.Context.
//
// Example of writing a value to the context:
//
//	ctx := context.WithValue(ctx, utils.IdentityIDCtxKey, int64(42))
var IdentityIDCtxKey = contextKey("identityID")

// RoleCtxKey is the key used to store the caller's role claim in the context.
var RoleCtxKey = contextKey("role")

// GetIdentityIDFromContext retrieves the caller identity identifier from the
// context.
//
// Returns the identity ID of type int64 and an ok flag:
//   - ok == true  — value is found and has the correct int64 type
//   - ok == false — value is missing or has an unexpected type
func GetIdentityIDFromContext(ctx context.Context) (int64, bool) {
	identityID, ok := ctx.Value(IdentityIDCtxKey).(int64)
	return identityID, ok
}

// GetRoleFromContext retrieves the caller's role from the context.
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleCtxKey).(string)
	return role, ok
}

// Package config loads and validates the vaultwire server configuration.
//
// Values are merged from three sources in priority order: environment
// variables, command-line flags, and an optional JSON file. The merged result
// is validated once at startup; in particular the process refuses to start
// without a well-formed 32-byte master secret.
package config

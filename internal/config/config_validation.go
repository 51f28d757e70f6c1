// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "fmt"

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// The master secret check is deliberately strict: a process that cannot wrap
// and unwrap key material must not come up at all, so an absent or malformed
// secret fails the build step instead of degrading at the first Wrap call.
func (cfg *StructuredConfig) validate() error {
	if _, err := cfg.App.MasterSecret(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMasterSecret, err)
	}

	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Server.HTTPAddress == "" {
		return ErrInvalidServerConfigs
	}

	if cfg.App.TokenSignKey == "" || cfg.App.TokenIssuer == "" {
		return ErrInvalidAppConfigs
	}

	return nil
}

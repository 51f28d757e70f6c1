package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			MasterKeyHex:   strings.Repeat("ab", 32),
			TokenSignKey:   "sign-key",
			TokenIssuer:    "vaultwire",
			CertificateTTL: 8760 * time.Hour,
		},
		Storage: Storage{DB: DB{DSN: "postgres://localhost/vaultwire"}},
		Server:  Server{HTTPAddress: "localhost:8080", RequestTimeout: 30 * time.Second},
		Workers: Workers{SweepInterval: 10 * time.Minute},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().validate())
}

func TestValidate_MasterSecret(t *testing.T) {
	tests := []struct {
		name string
		hex  string
	}{
		{name: "missing", hex: ""},
		{name: "too short", hex: "abcd"},
		{name: "too long", hex: strings.Repeat("ab", 33)},
		{name: "not hex", hex: strings.Repeat("zz", 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.MasterKeyHex = tt.hex

			err := cfg.validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidMasterSecret)
		})
	}
}

func TestValidate_EmptyDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.DB.DSN = ""

	assert.ErrorIs(t, cfg.validate(), ErrInvalidStorageConfigs)
}

func TestValidate_EmptyAddress(t *testing.T) {
	cfg := validConfig()
	cfg.Server.HTTPAddress = ""

	assert.ErrorIs(t, cfg.validate(), ErrInvalidServerConfigs)
}

func TestValidate_MissingTokenSettings(t *testing.T) {
	cfg := validConfig()
	cfg.App.TokenSignKey = ""

	assert.ErrorIs(t, cfg.validate(), ErrInvalidAppConfigs)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &StructuredConfig{}
	cfg.applyDefaults()

	assert.Equal(t, defaultCertificateTTL, cfg.App.CertificateTTL)
	assert.Equal(t, defaultSweepInterval, cfg.Workers.SweepInterval)
	assert.Equal(t, defaultRequestTimeout, cfg.Server.RequestTimeout)
}

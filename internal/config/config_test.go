package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
db_user: "calc"
db_name: "print_calc"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, 3306, cfg.DBPort)
	assert.Equal(t, "localhost:4001", cfg.Address)
	assert.Equal(t, 4*time.Second, cfg.HTTPServer.Timeout)

	assert.Equal(t, 0.12, cfg.Pricing.OverheadRate)
	assert.Equal(t, 0.20, cfg.Pricing.DefaultMargin)
	assert.Equal(t, 0.21, cfg.Pricing.VATRate)
	assert.Equal(t, "Standaard", cfg.Pricing.SpeedTier)
	assert.Equal(t, 4, cfg.Pricing.LookupConcurrency)

	assert.Equal(t, 5, cfg.Planning.LeadBusinessDays)
	assert.Equal(t, "owner", cfg.Planning.OwnerRole)
	assert.Equal(t, 1.0, cfg.Planning.FallbackDurationHours)
	assert.Zero(t, cfg.Imposition.Bleed)
}

func TestLoad_RegionalPolicy(t *testing.T) {
	path := writeConfig(t, `
env: "dev"
db_user: "calc"
db_name: "print_calc"
pricing:
  overhead_rate: 0.10
  default_margin: 0.30
  vat_rate: 0.19
  speed_tier: "Snel"
imposition:
  bleed: 3
  gutter: 5
planning:
  lead_business_days: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 0.10, cfg.Pricing.OverheadRate)
	assert.Equal(t, 0.30, cfg.Pricing.DefaultMargin)
	assert.Equal(t, 0.19, cfg.Pricing.VATRate)
	assert.Equal(t, "Snel", cfg.Pricing.SpeedTier)
	assert.Equal(t, 3, cfg.Planning.LeadBusinessDays)
	assert.Equal(t, 3.0, cfg.Imposition.Bleed)
	assert.Equal(t, 5.0, cfg.Imposition.Gutter)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := defaultConfig(t)

	assert.Equal(t, 0.25, cfg.Weights.Revenue)
	assert.Equal(t, 0.25, cfg.Weights.CashFlow)
	assert.Equal(t, 0.20, cfg.Weights.Tax)
	assert.Equal(t, 0.15, cfg.Weights.Payroll)
	assert.Equal(t, 0.15, cfg.Weights.Audit)
	assert.Equal(t, 80.0, cfg.Threshold.Pass)
	assert.Equal(t, 50.0, cfg.Threshold.Warn)
	assert.Equal(t, 2, cfg.Ingest.MinSources)
	assert.Equal(t, 3, cfg.Ingest.MinHistoryMonths)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
}

func TestValidate_DefaultsPass(t *testing.T) {
	cfg := defaultConfig(t)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_WeightsMustSumToOne(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Weights.Revenue = 0.30

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must sum to 1.0")
}

func TestValidate_NegativeWeight(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Weights.Tax = -0.20
	cfg.Weights.Revenue = 0.65

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative")
}

func TestValidate_ThresholdOrdering(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Threshold.Warn = 85

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warn threshold")
}

func TestValidate_ThresholdRange(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Threshold.Pass = 120

	require.Error(t, cfg.Validate())
}

func TestValidate_MinSourcesRange(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Ingest.MinSources = 5

	require.Error(t, cfg.Validate())

	cfg.Ingest.MinSources = 0
	require.Error(t, cfg.Validate())
}

func TestValidate_RevenueBandOrdering(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Rules.RevenueAlertPct = 5 // below warn

	require.Error(t, cfg.Validate())
}

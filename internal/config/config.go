package config

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Weights   WeightsConfig    `yaml:"weights" mapstructure:"weights"`
	Threshold ThresholdConfig  `yaml:"threshold" mapstructure:"threshold"`
	Ingest    IngestConfig     `yaml:"ingest" mapstructure:"ingest"`
	Rules     RulesConfig      `yaml:"rules" mapstructure:"rules"`
	Normalize NormalizeConfig  `yaml:"normalize" mapstructure:"normalize"`
	Store     StoreConfig      `yaml:"store" mapstructure:"store"`
	Server    ServerConfig     `yaml:"server" mapstructure:"server"`
	Log       LogConfig        `yaml:"log" mapstructure:"log"`
}

// WeightsConfig holds the per-rule aggregation weights. They must sum
// to exactly 1.0; anything else is a configuration error at startup.
type WeightsConfig struct {
	Revenue  float64 `yaml:"revenue" mapstructure:"revenue"`
	CashFlow float64 `yaml:"cash_flow" mapstructure:"cash_flow"`
	Tax      float64 `yaml:"tax" mapstructure:"tax"`
	Payroll  float64 `yaml:"payroll" mapstructure:"payroll"`
	Audit    float64 `yaml:"audit" mapstructure:"audit"`
}

// Sum returns the total of the five weights.
func (w WeightsConfig) Sum() float64 {
	return w.Revenue + w.CashFlow + w.Tax + w.Payroll + w.Audit
}

// ThresholdConfig holds the PASS/WARN score cutoffs applied uniformly
// to rule scores and the final FTS.
type ThresholdConfig struct {
	Pass float64 `yaml:"pass" mapstructure:"pass"`
	Warn float64 `yaml:"warn" mapstructure:"warn"`
}

// IngestConfig holds the minimum data contract.
type IngestConfig struct {
	MinSources       int `yaml:"min_sources" mapstructure:"min_sources"`
	MinHistoryMonths int `yaml:"min_history_months" mapstructure:"min_history_months"`
}

// RulesConfig holds per-rule tolerances and limits.
type RulesConfig struct {
	RevenueWarnPct      float64 `yaml:"revenue_warn_pct" mapstructure:"revenue_warn_pct"`
	RevenueAlertPct     float64 `yaml:"revenue_alert_pct" mapstructure:"revenue_alert_pct"`
	TaxMatchTolerance   float64 `yaml:"tax_match_tolerance_pct" mapstructure:"tax_match_tolerance_pct"`
	TaxLateGraceDays    int     `yaml:"tax_late_grace_days" mapstructure:"tax_late_grace_days"`
	TaxLateZeroDays     int     `yaml:"tax_late_zero_days" mapstructure:"tax_late_zero_days"`
	PayrollMaxGapDays   int     `yaml:"payroll_max_gap_days" mapstructure:"payroll_max_gap_days"`
	AuditAmountTolPct   float64 `yaml:"audit_amount_tolerance_pct" mapstructure:"audit_amount_tolerance_pct"`
	AuditDateWindowDays int     `yaml:"audit_date_window_days" mapstructure:"audit_date_window_days"`
}

// NormalizeConfig configures the normalization engine.
type NormalizeConfig struct {
	BaseCurrency string `yaml:"base_currency" mapstructure:"base_currency"`
	TaxonomyPath string `yaml:"taxonomy_path" mapstructure:"taxonomy_path"`
}

// StoreConfig configures the report history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the scoring HTTP server.
type ServerConfig struct {
	Port         int     `yaml:"port" mapstructure:"port"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateBurst    int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FTSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("weights.revenue", 0.25)
	v.SetDefault("weights.cash_flow", 0.25)
	v.SetDefault("weights.tax", 0.20)
	v.SetDefault("weights.payroll", 0.15)
	v.SetDefault("weights.audit", 0.15)
	v.SetDefault("threshold.pass", 80.0)
	v.SetDefault("threshold.warn", 50.0)
	v.SetDefault("ingest.min_sources", 2)
	v.SetDefault("ingest.min_history_months", 3)
	v.SetDefault("rules.revenue_warn_pct", 10.0)
	v.SetDefault("rules.revenue_alert_pct", 25.0)
	v.SetDefault("rules.tax_match_tolerance_pct", 5.0)
	v.SetDefault("rules.tax_late_grace_days", 30)
	v.SetDefault("rules.tax_late_zero_days", 90)
	v.SetDefault("rules.payroll_max_gap_days", 35)
	v.SetDefault("rules.audit_amount_tolerance_pct", 2.0)
	v.SetDefault("rules.audit_date_window_days", 3)
	v.SetDefault("normalize.base_currency", "INR")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "ftscore.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_rps", 5.0)
	v.SetDefault("server.rate_burst", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// weightSumTolerance absorbs float representation error when checking
// that weights sum to 1.0.
const weightSumTolerance = 1e-9

// Validate enforces the configuration invariants. Violations are fatal
// at startup and never silently corrected.
func (c *Config) Validate() error {
	if sum := c.Weights.Sum(); math.Abs(sum-1.0) > weightSumTolerance {
		return eris.Errorf("config: rule weights sum to %.6f, must sum to 1.0", sum)
	}
	for name, w := range map[string]float64{
		"revenue":   c.Weights.Revenue,
		"cash_flow": c.Weights.CashFlow,
		"tax":       c.Weights.Tax,
		"payroll":   c.Weights.Payroll,
		"audit":     c.Weights.Audit,
	} {
		if w < 0 {
			return eris.Errorf("config: weight %s is negative (%.4f)", name, w)
		}
	}
	if c.Threshold.Pass <= 0 || c.Threshold.Pass > 100 {
		return eris.Errorf("config: pass threshold %.1f out of range (0,100]", c.Threshold.Pass)
	}
	if c.Threshold.Warn < 0 || c.Threshold.Warn >= c.Threshold.Pass {
		return eris.Errorf("config: warn threshold %.1f must be in [0, pass)", c.Threshold.Warn)
	}
	if c.Ingest.MinSources < 1 || c.Ingest.MinSources > 4 {
		return eris.Errorf("config: min_sources %d out of range [1,4]", c.Ingest.MinSources)
	}
	if c.Ingest.MinHistoryMonths < 1 {
		return eris.Errorf("config: min_history_months %d must be positive", c.Ingest.MinHistoryMonths)
	}
	for name, pct := range map[string]float64{
		"revenue_warn_pct":           c.Rules.RevenueWarnPct,
		"revenue_alert_pct":          c.Rules.RevenueAlertPct,
		"tax_match_tolerance_pct":    c.Rules.TaxMatchTolerance,
		"audit_amount_tolerance_pct": c.Rules.AuditAmountTolPct,
	} {
		if pct < 0 || pct > 100 {
			return eris.Errorf("config: %s %.1f out of range [0,100]", name, pct)
		}
	}
	if c.Rules.RevenueAlertPct < c.Rules.RevenueWarnPct {
		return eris.New("config: revenue_alert_pct must be >= revenue_warn_pct")
	}
	if c.Rules.TaxLateZeroDays <= c.Rules.TaxLateGraceDays {
		return eris.New("config: tax_late_zero_days must exceed tax_late_grace_days")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

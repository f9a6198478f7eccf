// Package rules implements the five validation rules of the trust
// pipeline. Each rule is independent and side-effect-free: it reads the
// normalized dataset and produces one bounded (score, status) result.
package rules

import (
	"math"

	"github.com/rtfti/ftscore/internal/config"
	"github.com/rtfti/ftscore/internal/model"
)

// Rule is the single capability all five evaluators implement.
type Rule interface {
	Name() string
	Weight() float64
	Evaluate(ds *model.NormalizedDataset) model.RuleResult
}

// All returns the five rule evaluators in canonical order.
func All(cfg *config.Config) []Rule {
	return []Rule{
		&RevenueIntegrity{cfg: cfg},
		&CashFlow{cfg: cfg},
		&TaxCompliance{cfg: cfg},
		&PayrollConsistency{cfg: cfg},
		&AuditReadiness{cfg: cfg},
	}
}

// statusFor applies the uniform PASS/WARN/ALERT thresholds to a score.
func statusFor(score float64, th config.ThresholdConfig) model.Status {
	switch {
	case score >= th.Pass:
		return model.StatusPass
	case score >= th.Warn:
		return model.StatusWarn
	default:
		return model.StatusAlert
	}
}

// relDiffPct is the relative difference between two magnitudes as a
// percentage of the larger one.
func relDiffPct(a, b float64) float64 {
	larger := math.Max(math.Abs(a), math.Abs(b))
	if larger == 0 {
		return 0
	}
	return math.Abs(a-b) / larger * 100
}

func clampScore(s float64) float64 {
	return math.Min(100, math.Max(0, s))
}

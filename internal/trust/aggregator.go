// Package trust folds the per-rule results into the final Financial
// Trust Score report.
package trust

import (
	"fmt"
	"math"
	"time"

	"github.com/rtfti/ftscore/internal/config"
	"github.com/rtfti/ftscore/internal/model"
)

// Aggregate combines the five rule results into a TrustReport. The
// weighted sum is well-defined because configuration validation
// guarantees the weights sum to 1.0.
func Aggregate(cfg *config.Config, entity string, ing *model.IngestionReport,
	ds *model.NormalizedDataset, results map[string]model.RuleResult) *model.TrustReport {

	report := &model.TrustReport{
		Entity:     entity,
		Outcome:    model.OutcomeComputed,
		Rules:      results,
		Ingestion:  ing,
		Coverage:   ds.Coverage,
		ComputedAt: time.Now().UTC(),
	}

	var fts float64
	var reduced int
	for _, name := range model.RuleNames {
		res, ok := results[name]
		if !ok {
			continue
		}
		fts += res.Weight * res.Score
		if res.ReducedConfidence {
			reduced++
		}
		switch res.Status {
		case model.StatusAlert:
			report.Alerts++
		case model.StatusWarn:
			report.Warnings++
		}
	}

	report.FTS = round1(fts)
	report.Confidence = round1(confidence(ds.Coverage, ing.ConnectivityRatio(), reduced))
	report.Status = overallStatus(report.FTS, cfg.Threshold)
	report.Rationale = rationale(report)
	return report
}

// NotComputable builds the degraded report returned when the minimum
// data contract fails. It carries the ingestion evidence but no score.
func NotComputable(entity string, ing *model.IngestionReport, reason string) *model.TrustReport {
	return &model.TrustReport{
		Entity:     entity,
		Outcome:    model.OutcomeNotComputable,
		Ingestion:  ing,
		Rationale:  reason,
		ComputedAt: time.Now().UTC(),
	}
}

// confidence blends three evidence signals with equal weight: dataset
// coverage, source connectivity, and the share of rules that ran at
// full confidence.
func confidence(coverage, connectivity float64, reduced int) float64 {
	fullRules := 1 - float64(reduced)/float64(len(model.RuleNames))
	c := 100 * (coverage + connectivity + fullRules) / 3
	return math.Min(100, math.Max(0, c))
}

func overallStatus(fts float64, th config.ThresholdConfig) model.Status {
	switch {
	case fts >= th.Pass:
		return model.StatusPass
	case fts >= th.Warn:
		return model.StatusWarn
	default:
		return model.StatusAlert
	}
}

func rationale(r *model.TrustReport) string {
	switch {
	case r.Alerts > 0:
		return fmt.Sprintf("FTS %.1f with %d alerting rule(s)", r.FTS, r.Alerts)
	case r.Warnings > 0:
		return fmt.Sprintf("FTS %.1f with %d warning rule(s)", r.FTS, r.Warnings)
	default:
		return fmt.Sprintf("FTS %.1f, all rules passing", r.FTS)
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

package rules

import (
	"fmt"

	"github.com/rtfti/ftscore/internal/config"
	"github.com/rtfti/ftscore/internal/model"
)

// RevenueIntegrity cross-checks total credit volume across the general
// ledger, bank deposits, and GST-reported sales for the same window.
type RevenueIntegrity struct {
	cfg *config.Config
}

func (r *RevenueIntegrity) Name() string    { return model.RuleRevenueIntegrity }
func (r *RevenueIntegrity) Weight() float64 { return r.cfg.Weights.Revenue }

func (r *RevenueIntegrity) Evaluate(ds *model.NormalizedDataset) model.RuleResult {
	result := model.RuleResult{Rule: r.Name(), Weight: r.Weight()}

	type sourceTotal struct {
		label string
		value float64
	}
	all := []sourceTotal{
		{"GL", ds.Totals.GLRevenue},
		{"Bank", ds.Totals.BankDeposits},
		{"GST", ds.Totals.GSTReportedSales},
	}
	var present []sourceTotal
	for _, st := range all {
		if st.value > 0 {
			present = append(present, st)
		}
	}

	if len(present) == 0 {
		result.Score = 0
		result.Status = model.StatusAlert
		result.ReducedConfidence = true
		result.Rationale = "no revenue volume reported by GL, bank, or GST"
		return result
	}

	// Deviation is the worst pairwise relative difference, in percent.
	var deviation float64
	for i := 0; i < len(present); i++ {
		for j := i + 1; j < len(present); j++ {
			if d := relDiffPct(present[i].value, present[j].value); d > deviation {
				deviation = d
			}
		}
	}

	result.Score = clampScore(100 - deviation*2)
	switch {
	case deviation <= r.cfg.Rules.RevenueWarnPct:
		result.Status = model.StatusPass
	case deviation <= r.cfg.Rules.RevenueAlertPct:
		result.Status = model.StatusWarn
	default:
		result.Status = model.StatusAlert
	}

	// Fewer than two reporting sources means nothing to cross-check.
	result.ReducedConfidence = len(present) < 2

	detail := ""
	for i, st := range present {
		if i > 0 {
			detail += ", "
		}
		detail += fmt.Sprintf("%s=%.0f", st.label, st.value)
	}
	result.Rationale = fmt.Sprintf("deviation %.1f%% across %s", deviation, detail)
	if result.ReducedConfidence {
		result.Rationale += " (single source, reduced confidence)"
	}
	return result
}

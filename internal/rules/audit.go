package rules

import (
	"fmt"
	"math"

	"github.com/rtfti/ftscore/internal/config"
	"github.com/rtfti/ftscore/internal/model"
)

// AuditReadiness measures how many ledger vouchers can be substantiated
// by a bank record: same entity, amount within tolerance, date within
// the matching window. Records already merged across sources count as
// matched by construction.
type AuditReadiness struct {
	cfg *config.Config
}

func (r *AuditReadiness) Name() string    { return model.RuleAuditReadiness }
func (r *AuditReadiness) Weight() float64 { return r.cfg.Weights.Audit }

func (r *AuditReadiness) Evaluate(ds *model.NormalizedDataset) model.RuleResult {
	result := model.RuleResult{Rule: r.Name(), Weight: r.Weight()}

	var vouchers []model.NormalizedRecord
	var bank []model.NormalizedRecord
	for _, rec := range ds.Records {
		switch {
		case rec.Origin() == model.SourceLedger &&
			(rec.Category == model.CategoryRevenue || rec.Category == model.CategoryExpense):
			vouchers = append(vouchers, rec)
		case rec.Origin() == model.SourceBank:
			bank = append(bank, rec)
		}
	}

	if len(vouchers) == 0 {
		result.Score = 0
		result.Status = model.StatusAlert
		result.ReducedConfidence = true
		result.Rationale = "DOCUMENT_GAP: no ledger vouchers to audit"
		return result
	}

	used := make([]bool, len(bank))
	matched := 0
	for _, v := range vouchers {
		if v.CorroboratedBy(model.SourceBank) {
			matched++
			continue
		}
		if i := r.findBankMatch(v, bank, used); i >= 0 {
			used[i] = true
			matched++
		}
	}

	matchPct := float64(matched) / float64(len(vouchers))
	result.Score = clampScore(matchPct * 100)
	result.Status = statusFor(result.Score, r.cfg.Threshold)
	result.ReducedConfidence = len(bank) == 0
	result.Rationale = fmt.Sprintf("%d/%d voucher(s) substantiated by bank records", matched, len(vouchers))
	if result.ReducedConfidence {
		result.Rationale += " (no bank feed connected)"
	}
	return result
}

// findBankMatch greedily picks the first unused bank record for the
// voucher within the amount tolerance and date window. Greedy matching
// is sufficient: ambiguity only arises for near-identical records,
// where any assignment yields the same count.
func (r *AuditReadiness) findBankMatch(v model.NormalizedRecord, bank []model.NormalizedRecord, used []bool) int {
	tol := r.cfg.Rules.AuditAmountTolPct
	window := float64(r.cfg.Rules.AuditDateWindowDays) * 24

	for i, b := range bank {
		if used[i] || b.Entity != v.Entity {
			continue
		}
		if relDiffPct(v.Amount, b.Amount) > tol {
			continue
		}
		if math.Abs(v.Date.Sub(b.Date).Hours()) > window {
			continue
		}
		return i
	}
	return -1
}

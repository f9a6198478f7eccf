package rules

import (
	"fmt"
	"math"

	"github.com/rtfti/ftscore/internal/config"
	"github.com/rtfti/ftscore/internal/model"
)

// healthyRatioLow/High bound the inflow/outflow band considered healthy.
const (
	healthyRatioLow  = 0.85
	healthyRatioHigh = 1.15
)

// CashFlow scores the balance between total inflows and outflows over
// the normalized dataset.
type CashFlow struct {
	cfg *config.Config
}

func (r *CashFlow) Name() string    { return model.RuleCashFlow }
func (r *CashFlow) Weight() float64 { return r.cfg.Weights.CashFlow }

func (r *CashFlow) Evaluate(ds *model.NormalizedDataset) model.RuleResult {
	result := model.RuleResult{Rule: r.Name(), Weight: r.Weight()}

	if ds.TotalDebits == 0 {
		result.Score = 0
		result.Status = model.StatusAlert
		result.Rationale = fmt.Sprintf("DIVISION_UNDEFINED: zero outflows (inflows=%.0f)", ds.TotalCredits)
		return result
	}

	ratio := ds.TotalCredits / ds.TotalDebits
	result.Score = clampScore(100 - math.Abs(ratio-1)*100)
	result.Status = statusFor(result.Score, r.cfg.Threshold)

	result.Rationale = fmt.Sprintf("inflow/outflow ratio %.2f", ratio)
	if ratio < healthyRatioLow || ratio > healthyRatioHigh {
		result.Rationale += fmt.Sprintf(" outside healthy band [%.2f, %.2f]", healthyRatioLow, healthyRatioHigh)
	}
	return result
}

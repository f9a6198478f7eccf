package rules

import (
	"fmt"
	"time"

	"github.com/rtfti/ftscore/internal/config"
	"github.com/rtfti/ftscore/internal/model"
)

// PayrollConsistency checks that statutory PF and ESI remittances keep
// pace with what is owed, and that salary runs occur at a regular
// monthly cadence.
type PayrollConsistency struct {
	cfg *config.Config
}

func (r *PayrollConsistency) Name() string    { return model.RulePayrollConsistency }
func (r *PayrollConsistency) Weight() float64 { return r.cfg.Weights.Payroll }

func (r *PayrollConsistency) Evaluate(ds *model.NormalizedDataset) model.RuleResult {
	result := model.RuleResult{Rule: r.Name(), Weight: r.Weight()}

	t := ds.Totals
	if t.PayrollSalary == 0 && t.PFOwed == 0 && t.ESIOwed == 0 && len(t.SalaryDates) == 0 {
		result.Score = 0
		result.Status = model.StatusAlert
		result.ReducedConfidence = true
		result.Rationale = "no payroll records in the dataset"
		return result
	}

	pfPct := remittanceRatio(t.PFRemitted, t.PFOwed)
	esiPct := remittanceRatio(t.ESIRemitted, t.ESIOwed)

	result.Score = clampScore((pfPct*0.5 + esiPct*0.5) * 100)
	result.Status = statusFor(result.Score, r.cfg.Threshold)
	result.Rationale = fmt.Sprintf("PF remitted %.0f%%, ESI remitted %.0f%%", pfPct*100, esiPct*100)

	// A gap in the salary cadence beyond the limit signals missed
	// payroll cycles even when remittances are current. The score is
	// untouched; the status is capped at WARN.
	if gap := maxSalaryGapDays(t.SalaryDates, ds.WindowStart, ds.WindowEnd); gap > r.cfg.Rules.PayrollMaxGapDays {
		if result.Status == model.StatusPass {
			result.Status = model.StatusWarn
		}
		result.Rationale += fmt.Sprintf("; %d day gap between salary runs exceeds %d day cadence",
			gap, r.cfg.Rules.PayrollMaxGapDays)
	}
	return result
}

// remittanceRatio returns remitted/owed clamped to [0,1]. A scheme with
// nothing owed is fully compliant.
func remittanceRatio(remitted, owed float64) float64 {
	if owed <= 0 {
		return 1
	}
	ratio := remitted / owed
	if ratio > 1 {
		return 1
	}
	if ratio < 0 {
		return 0
	}
	return ratio
}

// maxSalaryGapDays returns the longest gap in days in the salary
// cadence. The dataset window edges count as gap boundaries, so a lone
// run early in a long window still surfaces the months with no payroll.
// Dates must be sorted ascending; zero window edges are ignored.
func maxSalaryGapDays(dates []time.Time, windowStart, windowEnd time.Time) int {
	if len(dates) == 0 {
		return 0
	}
	var max int
	if !windowStart.IsZero() && dates[0].After(windowStart) {
		max = dayGap(windowStart, dates[0])
	}
	for i := 1; i < len(dates); i++ {
		if gap := dayGap(dates[i-1], dates[i]); gap > max {
			max = gap
		}
	}
	if !windowEnd.IsZero() && windowEnd.After(dates[len(dates)-1]) {
		if gap := dayGap(dates[len(dates)-1], windowEnd); gap > max {
			max = gap
		}
	}
	return max
}

func dayGap(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

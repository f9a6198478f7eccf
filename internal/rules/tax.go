package rules

import (
	"fmt"
	"time"

	"github.com/rtfti/ftscore/internal/config"
	"github.com/rtfti/ftscore/internal/model"
)

// TaxCompliance blends filing discipline with GST-vs-GL revenue
// reconciliation. Both halves are bounded fractions, so the equal
// weighted blend can never exceed 100.
type TaxCompliance struct {
	cfg *config.Config
}

func (r *TaxCompliance) Name() string    { return model.RuleTaxCompliance }
func (r *TaxCompliance) Weight() float64 { return r.cfg.Weights.Tax }

func (r *TaxCompliance) Evaluate(ds *model.NormalizedDataset) model.RuleResult {
	result := model.RuleResult{Rule: r.Name(), Weight: r.Weight()}

	periods := expectedPeriods(ds.WindowStart, ds.WindowEnd)
	if len(periods) == 0 || len(ds.Filings) == 0 {
		result.Score = 0
		result.Status = model.StatusAlert
		result.ReducedConfidence = true
		result.Rationale = "no tax filings in the dataset window"
		return result
	}

	filingByPeriod := make(map[string]model.NormalizedFiling, len(ds.Filings))
	for _, f := range ds.Filings {
		filingByPeriod[f.Period] = f
	}

	var filedCredit float64
	var matched, comparable int
	for _, period := range periods {
		f, ok := filingByPeriod[period]
		if !ok || !f.Present {
			continue
		}
		filedCredit += lateCredit(f.LateDays, r.cfg.Rules)

		glRevenue := ds.GLRevenueByPeriod[period]
		if f.ReportedSales > 0 && glRevenue > 0 {
			comparable++
			if relDiffPct(f.ReportedSales, glRevenue) <= r.cfg.Rules.TaxMatchTolerance {
				matched++
			}
		}
	}

	filedPct := filedCredit / float64(len(periods))

	if comparable == 0 {
		// Nothing to reconcile against GL: score on filing discipline
		// alone, flagged as reduced confidence.
		result.Score = clampScore(filedPct * 100)
		result.Status = statusFor(result.Score, r.cfg.Threshold)
		result.ReducedConfidence = true
		result.Rationale = fmt.Sprintf("filed %.0f%% of %d expected period(s); no GL revenue to reconcile", filedPct*100, len(periods))
		return result
	}

	matchPct := float64(matched) / float64(comparable)
	result.Score = clampScore((filedPct*0.5 + matchPct*0.5) * 100)
	result.Status = statusFor(result.Score, r.cfg.Threshold)
	result.Rationale = fmt.Sprintf("filed %.0f%% of %d period(s), %d/%d reported figures reconcile with GL",
		filedPct*100, len(periods), matched, comparable)
	return result
}

// lateCredit converts filing delay into fractional filing credit: full
// credit within the grace window, then linear decay to zero.
func lateCredit(lateDays int, cfg config.RulesConfig) float64 {
	if lateDays <= cfg.TaxLateGraceDays {
		return 1
	}
	span := float64(cfg.TaxLateZeroDays - cfg.TaxLateGraceDays)
	credit := 1 - float64(lateDays-cfg.TaxLateGraceDays)/span
	if credit < 0 {
		return 0
	}
	return credit
}

// expectedPeriods lists every calendar month touched by the dataset
// window as YYYY-MM.
func expectedPeriods(start, end time.Time) []string {
	if start.IsZero() || end.Before(start) {
		return nil
	}
	var periods []string
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(last) {
		periods = append(periods, cur.Format("2006-01"))
		cur = cur.AddDate(0, 1, 0)
	}
	return periods
}

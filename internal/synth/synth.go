// Package synth generates plausible record batches for demos and load
// testing. Output is deterministic for a given seed.
package synth

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rtfti/ftscore/internal/model"
)

// Profile describes the business whose books are being synthesized.
// TurnoverCr is annual turnover in crore; amounts come out in lakh.
type Profile struct {
	Entity     string
	TurnoverCr float64
	Employees  int
	Months     int
	Seed       int64

	// LateFilingOdds and SkipRemittanceOdds inject compliance defects.
	// Zero values produce clean books.
	LateFilingOdds     float64
	SkipRemittanceOdds float64
}

// avgSalaryLakh is the assumed monthly salary per employee, in lakh.
const avgSalaryLakh = 0.4

// Generate produces a batch spanning p.Months calendar months ending at
// the month before now.
func Generate(p Profile, now time.Time) model.RecordBatch {
	rng := rand.New(rand.NewSource(p.Seed))
	monthlyRev := p.TurnoverCr * 100 / 12

	var batch model.RecordBatch
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -p.Months, 0)

	for i := 0; i < p.Months; i++ {
		month := start.AddDate(0, i, 0)
		period := month.Format("2006-01")

		// Ledger: one revenue and one expense posting per month.
		revenue := round2(monthlyRev * uniform(rng, 0.85, 1.15))
		expenses := round2(revenue * uniform(rng, 0.65, 0.85))
		batch.Ledger = append(batch.Ledger,
			model.LedgerEntry{
				Date:        month.AddDate(0, 0, 4),
				Amount:      revenue,
				AccountCode: "4000",
				Entity:      fmt.Sprintf("%s-sales-%s", p.Entity, period),
			},
			model.LedgerEntry{
				Date:        month.AddDate(0, 0, 18),
				Amount:      -expenses,
				AccountCode: "5000",
				Entity:      fmt.Sprintf("%s-purchases-%s", p.Entity, period),
			},
		)

		// Bank: mirrors the ledger with its own noise, landing a day
		// after the ledger posting so deduplication can corroborate.
		inflow := round2(monthlyRev * uniform(rng, 0.82, 1.18))
		outflow := round2(inflow * uniform(rng, 0.70, 0.90))
		batch.Bank = append(batch.Bank,
			model.BankTransaction{
				Date:   month.AddDate(0, 0, 5),
				Amount: inflow,
				Type:   "deposit",
				Entity: fmt.Sprintf("%s-sales-%s", p.Entity, period),
			},
			model.BankTransaction{
				Date:   month.AddDate(0, 0, 19),
				Amount: -outflow,
				Type:   "withdrawal",
				Entity: fmt.Sprintf("%s-purchases-%s", p.Entity, period),
			},
		)

		// GST return for the month, occasionally filed late.
		reported := round2(monthlyRev * uniform(rng, 0.88, 1.12))
		filedOn := month.AddDate(0, 1, 9)
		if rng.Float64() < p.LateFilingOdds {
			filedOn = filedOn.AddDate(0, 0, 20+rng.Intn(60))
		}
		batch.GST = append(batch.GST, model.TaxFiling{
			Period:        period,
			FiledOn:       filedOn,
			ReportedSales: reported,
			Status:        "filed",
		})

		// Payroll: salary run plus PF and ESI remittances.
		salary := round2(float64(p.Employees) * avgSalaryLakh * uniform(rng, 0.95, 1.05))
		payday := month.AddDate(0, 0, 27)
		pfOwed := round2(salary * 0.12)
		esiOwed := round2(salary * 0.0325)
		pfPaid, esiPaid := pfOwed, esiOwed
		if rng.Float64() < p.SkipRemittanceOdds {
			pfPaid, esiPaid = 0, 0
		}
		batch.Payroll = append(batch.Payroll,
			model.PayrollEntry{Date: payday, Amount: salary, Type: "salary", Entity: p.Entity + "-staff"},
			model.PayrollEntry{Date: payday, Amount: pfPaid, Owed: pfOwed, Type: "pf", Entity: p.Entity + "-staff"},
			model.PayrollEntry{Date: payday, Amount: esiPaid, Owed: esiOwed, Type: "esi", Entity: p.Entity + "-staff"},
		)
	}

	return batch
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

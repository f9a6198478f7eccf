package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtfti/ftscore/internal/config"
	"github.com/rtfti/ftscore/internal/model"
)

func testConfig() *config.Config {
	return &config.Config{
		Weights: config.WeightsConfig{
			Revenue: 0.25, CashFlow: 0.25, Tax: 0.20, Payroll: 0.15, Audit: 0.15,
		},
		Threshold: config.ThresholdConfig{Pass: 80, Warn: 50},
		Rules: config.RulesConfig{
			RevenueWarnPct:      10,
			RevenueAlertPct:     25,
			TaxMatchTolerance:   5,
			TaxLateGraceDays:    30,
			TaxLateZeroDays:     90,
			PayrollMaxGapDays:   35,
			AuditAmountTolPct:   2,
			AuditDateWindowDays: 3,
		},
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAll_CanonicalOrderAndWeights(t *testing.T) {
	cfg := testConfig()
	all := All(cfg)
	require.Len(t, all, 5)

	var sum float64
	for i, rule := range all {
		assert.Equal(t, model.RuleNames[i], rule.Name())
		sum += rule.Weight()
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestRevenueIntegrity_Deviation(t *testing.T) {
	ds := &model.NormalizedDataset{
		Totals: model.SourceTotals{
			GLRevenue:        100_000,
			BankDeposits:     80_000,
			GSTReportedSales: 100_000,
		},
	}

	res := (&RevenueIntegrity{cfg: testConfig()}).Evaluate(ds)

	assert.InDelta(t, 60.0, res.Score, 1e-9, "worst pairwise deviation is 20 percent")
	assert.Equal(t, model.StatusWarn, res.Status)
	assert.False(t, res.ReducedConfidence)
	assert.Contains(t, res.Rationale, "20.0%")
}

func TestRevenueIntegrity_PerfectAgreement(t *testing.T) {
	ds := &model.NormalizedDataset{
		Totals: model.SourceTotals{GLRevenue: 5000, BankDeposits: 5000},
	}

	res := (&RevenueIntegrity{cfg: testConfig()}).Evaluate(ds)

	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, model.StatusPass, res.Status)
}

func TestRevenueIntegrity_SingleSource(t *testing.T) {
	ds := &model.NormalizedDataset{
		Totals: model.SourceTotals{GLRevenue: 5000},
	}

	res := (&RevenueIntegrity{cfg: testConfig()}).Evaluate(ds)

	assert.Equal(t, 100.0, res.Score, "nothing contradicts a single source")
	assert.True(t, res.ReducedConfidence)
}

func TestRevenueIntegrity_NoVolume(t *testing.T) {
	res := (&RevenueIntegrity{cfg: testConfig()}).Evaluate(&model.NormalizedDataset{})

	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, model.StatusAlert, res.Status)
	assert.True(t, res.ReducedConfidence)
}

func TestCashFlow_HealthyRatio(t *testing.T) {
	ds := &model.NormalizedDataset{TotalCredits: 110_000, TotalDebits: 100_000}

	res := (&CashFlow{cfg: testConfig()}).Evaluate(ds)

	assert.InDelta(t, 90.0, res.Score, 1e-9)
	assert.Equal(t, model.StatusPass, res.Status)
}

func TestCashFlow_ZeroOutflows(t *testing.T) {
	res := (&CashFlow{cfg: testConfig()}).Evaluate(&model.NormalizedDataset{})

	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, model.StatusAlert, res.Status)
	assert.Contains(t, res.Rationale, "DIVISION_UNDEFINED")
}

func TestCashFlow_SevereImbalance(t *testing.T) {
	ds := &model.NormalizedDataset{TotalCredits: 30_000, TotalDebits: 100_000}

	res := (&CashFlow{cfg: testConfig()}).Evaluate(ds)

	assert.InDelta(t, 30.0, res.Score, 1e-9)
	assert.Equal(t, model.StatusAlert, res.Status)
	assert.Contains(t, res.Rationale, "outside healthy band")
}

func TestTaxCompliance_AllFiledAndMatched(t *testing.T) {
	ds := &model.NormalizedDataset{
		WindowStart: day(2025, 4, 1),
		WindowEnd:   day(2025, 6, 30),
		Filings: []model.NormalizedFiling{
			{Period: "2025-04", Present: true, ReportedSales: 10_000},
			{Period: "2025-05", Present: true, ReportedSales: 10_200},
			{Period: "2025-06", Present: true, ReportedSales: 9_900},
		},
		GLRevenueByPeriod: map[string]float64{
			"2025-04": 10_000, "2025-05": 10_000, "2025-06": 10_000,
		},
	}

	res := (&TaxCompliance{cfg: testConfig()}).Evaluate(ds)

	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, model.StatusPass, res.Status)
	assert.False(t, res.ReducedConfidence)
}

func TestTaxCompliance_MissingAndLateFilings(t *testing.T) {
	ds := &model.NormalizedDataset{
		WindowStart: day(2025, 4, 1),
		WindowEnd:   day(2025, 6, 30),
		Filings: []model.NormalizedFiling{
			// 60 days late: half filing credit under the 30→90 decay.
			{Period: "2025-04", Present: true, LateDays: 60, ReportedSales: 10_000},
			{Period: "2025-05", Present: false},
			{Period: "2025-06", Present: true, ReportedSales: 10_000},
		},
		GLRevenueByPeriod: map[string]float64{
			"2025-04": 10_000, "2025-05": 10_000, "2025-06": 10_000,
		},
	}

	res := (&TaxCompliance{cfg: testConfig()}).Evaluate(ds)

	// filed = (0.5 + 0 + 1)/3 = 0.5, matched 2/2 = 1.0, blend = 75.
	assert.InDelta(t, 75.0, res.Score, 1e-9)
	assert.Equal(t, model.StatusWarn, res.Status)
}

func TestTaxCompliance_MismatchedSales(t *testing.T) {
	ds := &model.NormalizedDataset{
		WindowStart: day(2025, 5, 1),
		WindowEnd:   day(2025, 5, 31),
		Filings: []model.NormalizedFiling{
			{Period: "2025-05", Present: true, ReportedSales: 6_000},
		},
		GLRevenueByPeriod: map[string]float64{"2025-05": 10_000},
	}

	res := (&TaxCompliance{cfg: testConfig()}).Evaluate(ds)

	// Filed on time but 40% off GL: blend = (1*0.5 + 0*0.5)*100 = 50.
	assert.InDelta(t, 50.0, res.Score, 1e-9)
	assert.Equal(t, model.StatusWarn, res.Status)
}

func TestTaxCompliance_NoComparableRevenue(t *testing.T) {
	ds := &model.NormalizedDataset{
		WindowStart: day(2025, 5, 1),
		WindowEnd:   day(2025, 5, 31),
		Filings: []model.NormalizedFiling{
			{Period: "2025-05", Present: true, ReportedSales: 6_000},
		},
	}

	res := (&TaxCompliance{cfg: testConfig()}).Evaluate(ds)

	assert.Equal(t, 100.0, res.Score, "falls back to filing discipline alone")
	assert.True(t, res.ReducedConfidence)
	assert.Contains(t, res.Rationale, "no GL revenue to reconcile")
}

func TestTaxCompliance_NoFilings(t *testing.T) {
	ds := &model.NormalizedDataset{
		WindowStart: day(2025, 5, 1),
		WindowEnd:   day(2025, 5, 31),
	}

	res := (&TaxCompliance{cfg: testConfig()}).Evaluate(ds)

	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, model.StatusAlert, res.Status)
	assert.True(t, res.ReducedConfidence)
}

func TestLateCredit_Decay(t *testing.T) {
	cfg := testConfig().Rules

	assert.Equal(t, 1.0, lateCredit(0, cfg))
	assert.Equal(t, 1.0, lateCredit(30, cfg))
	assert.InDelta(t, 0.5, lateCredit(60, cfg), 1e-9)
	assert.Equal(t, 0.0, lateCredit(90, cfg))
	assert.Equal(t, 0.0, lateCredit(400, cfg))
}

func TestExpectedPeriods(t *testing.T) {
	got := expectedPeriods(day(2025, 4, 15), day(2025, 6, 2))
	assert.Equal(t, []string{"2025-04", "2025-05", "2025-06"}, got)

	assert.Nil(t, expectedPeriods(time.Time{}, day(2025, 6, 2)))
	assert.Nil(t, expectedPeriods(day(2025, 6, 2), day(2025, 4, 1)))
}

func TestPayrollConsistency_FullRemittance(t *testing.T) {
	ds := &model.NormalizedDataset{
		Totals: model.SourceTotals{
			PayrollSalary: 50_000,
			PFOwed:        6_000, PFRemitted: 6_000,
			ESIOwed: 1_500, ESIRemitted: 1_500,
			SalaryDates: []time.Time{day(2025, 4, 30), day(2025, 5, 31), day(2025, 6, 30)},
		},
	}

	res := (&PayrollConsistency{cfg: testConfig()}).Evaluate(ds)

	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, model.StatusPass, res.Status)
}

func TestPayrollConsistency_PartialRemittance(t *testing.T) {
	ds := &model.NormalizedDataset{
		Totals: model.SourceTotals{
			PayrollSalary: 50_000,
			PFOwed:        6_000, PFRemitted: 3_000,
			ESIOwed: 1_500, ESIRemitted: 1_500,
		},
	}

	res := (&PayrollConsistency{cfg: testConfig()}).Evaluate(ds)

	// PF at 50%, ESI at 100%: blend = 75.
	assert.InDelta(t, 75.0, res.Score, 1e-9)
	assert.Equal(t, model.StatusWarn, res.Status)
}

func TestPayrollConsistency_ZeroOwedIsCompliant(t *testing.T) {
	ds := &model.NormalizedDataset{
		Totals: model.SourceTotals{
			PayrollSalary: 50_000,
			SalaryDates:   []time.Time{day(2025, 4, 30), day(2025, 5, 31)},
		},
	}

	res := (&PayrollConsistency{cfg: testConfig()}).Evaluate(ds)

	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, model.StatusPass, res.Status)
}

func TestPayrollConsistency_SalaryGapCapsStatus(t *testing.T) {
	ds := &model.NormalizedDataset{
		Totals: model.SourceTotals{
			PayrollSalary: 50_000,
			PFOwed:        6_000, PFRemitted: 6_000,
			ESIOwed: 1_500, ESIRemitted: 1_500,
			// 61 days between runs.
			SalaryDates: []time.Time{day(2025, 4, 30), day(2025, 6, 30)},
		},
	}

	res := (&PayrollConsistency{cfg: testConfig()}).Evaluate(ds)

	assert.Equal(t, 100.0, res.Score, "gap caps status, not score")
	assert.Equal(t, model.StatusWarn, res.Status)
	assert.Contains(t, res.Rationale, "61 day gap")
}

func TestPayrollConsistency_SingleRunInLongWindowCapsStatus(t *testing.T) {
	ds := &model.NormalizedDataset{
		WindowStart: day(2025, 1, 1),
		WindowEnd:   day(2025, 6, 30),
		Totals: model.SourceTotals{
			PayrollSalary: 50_000,
			PFOwed:        6_000, PFRemitted: 6_000,
			ESIOwed: 1_500, ESIRemitted: 1_500,
			// One run in January, then five silent months.
			SalaryDates: []time.Time{day(2025, 1, 31)},
		},
	}

	res := (&PayrollConsistency{cfg: testConfig()}).Evaluate(ds)

	assert.Equal(t, 100.0, res.Score, "gap caps status, not score")
	assert.Equal(t, model.StatusWarn, res.Status)
	assert.Contains(t, res.Rationale, "150 day gap")
}

func TestPayrollConsistency_NoData(t *testing.T) {
	res := (&PayrollConsistency{cfg: testConfig()}).Evaluate(&model.NormalizedDataset{})

	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, model.StatusAlert, res.Status)
	assert.True(t, res.ReducedConfidence)
}

func TestAuditReadiness_MatchesVouchers(t *testing.T) {
	ds := &model.NormalizedDataset{
		Records: []model.NormalizedRecord{
			// Corroborated during normalization: matched by construction.
			{Date: day(2025, 5, 1), Amount: 1000, Entity: "acme",
				Category: model.CategoryRevenue, Sources: []model.Source{model.SourceLedger, model.SourceBank}},
			// Matched by tolerance search: +1% amount, 2 days apart.
			{Date: day(2025, 5, 10), Amount: 500, Entity: "supplies co",
				Category: model.CategoryExpense, Sources: []model.Source{model.SourceLedger}},
			{Date: day(2025, 5, 12), Amount: 505, Entity: "supplies co",
				Category: model.CategoryWithdrawal, Sources: []model.Source{model.SourceBank}},
			// Unmatched voucher.
			{Date: day(2025, 5, 20), Amount: 750, Entity: "ghost vendor",
				Category: model.CategoryExpense, Sources: []model.Source{model.SourceLedger}},
			// Unmatched bank record, out of date window for any voucher.
			{Date: day(2025, 6, 25), Amount: 750, Entity: "ghost vendor",
				Category: model.CategoryWithdrawal, Sources: []model.Source{model.SourceBank}},
		},
	}

	res := (&AuditReadiness{cfg: testConfig()}).Evaluate(ds)

	// 2 of 3 vouchers substantiated.
	assert.InDelta(t, 100.0*2.0/3.0, res.Score, 1e-6)
	assert.Equal(t, model.StatusWarn, res.Status)
	assert.Contains(t, res.Rationale, "2/3")
}

func TestAuditReadiness_BankRecordUsedOnce(t *testing.T) {
	ds := &model.NormalizedDataset{
		Records: []model.NormalizedRecord{
			{Date: day(2025, 5, 1), Amount: 1000, Entity: "acme",
				Category: model.CategoryExpense, Sources: []model.Source{model.SourceLedger}},
			{Date: day(2025, 5, 1), Amount: 1000, Entity: "acme",
				Category: model.CategoryExpense, Sources: []model.Source{model.SourceLedger}},
			{Date: day(2025, 5, 1), Amount: 1000, Entity: "acme",
				Category: model.CategoryWithdrawal, Sources: []model.Source{model.SourceBank}},
		},
	}

	res := (&AuditReadiness{cfg: testConfig()}).Evaluate(ds)

	assert.InDelta(t, 50.0, res.Score, 1e-9, "one bank record substantiates one voucher")
}

func TestAuditReadiness_NoVouchers(t *testing.T) {
	res := (&AuditReadiness{cfg: testConfig()}).Evaluate(&model.NormalizedDataset{})

	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, model.StatusAlert, res.Status)
	assert.Contains(t, res.Rationale, "DOCUMENT_GAP")
}

func TestAuditReadiness_NoBankFeed(t *testing.T) {
	ds := &model.NormalizedDataset{
		Records: []model.NormalizedRecord{
			{Date: day(2025, 5, 1), Amount: 1000, Entity: "acme",
				Category: model.CategoryRevenue, Sources: []model.Source{model.SourceLedger}},
		},
	}

	res := (&AuditReadiness{cfg: testConfig()}).Evaluate(ds)

	assert.Equal(t, 0.0, res.Score)
	assert.True(t, res.ReducedConfidence)
	assert.Contains(t, res.Rationale, "no bank feed")
}

func TestRelDiffPct(t *testing.T) {
	assert.InDelta(t, 20.0, relDiffPct(100_000, 80_000), 1e-9)
	assert.Equal(t, 0.0, relDiffPct(0, 0))
	assert.InDelta(t, 100.0, relDiffPct(0, 50), 1e-9)
}

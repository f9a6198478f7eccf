package pipeline

import (
	"context"
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
		Ingest:    config.IngestConfig{MinSources: 2, MinHistoryMonths: 3},
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
		Normalize: config.NormalizeConfig{BaseCurrency: "INR"},
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// healthyBatch spans three months with all four sources connected and
// internally consistent figures.
func healthyBatch() model.RecordBatch {
	var batch model.RecordBatch
	for i := 0; i < 3; i++ {
		month := time.Month(4 + i)
		batch.Ledger = append(batch.Ledger,
			model.LedgerEntry{Date: day(2025, month, 5), Amount: 10_000, AccountCode: "4000", Entity: "client-a"},
			model.LedgerEntry{Date: day(2025, month, 20), Amount: -6_000, AccountCode: "5000", Entity: "vendor-x"},
		)
		batch.Bank = append(batch.Bank,
			model.BankTransaction{Date: day(2025, month, 6), Amount: 10_000, Type: "deposit", Entity: "client-a"},
			model.BankTransaction{Date: day(2025, month, 21), Amount: -6_000, Type: "withdrawal", Entity: "vendor-x"},
		)
		batch.GST = append(batch.GST, model.TaxFiling{
			Period:        day(2025, month, 1).Format("2006-01"),
			FiledOn:       day(2025, month+1, 10),
			ReportedSales: 10_000,
		})
		batch.Payroll = append(batch.Payroll,
			model.PayrollEntry{Date: day(2025, month, 28), Amount: 3_000, Type: "salary", Entity: "staff"},
			model.PayrollEntry{Date: day(2025, month, 28), Amount: 360, Owed: 360, Type: "pf", Entity: "staff"},
			model.PayrollEntry{Date: day(2025, month, 28), Amount: 90, Owed: 90, Type: "esi", Entity: "staff"},
		)
	}
	return batch
}

func TestRun_HealthyBatch(t *testing.T) {
	p, err := New(testConfig())
	require.NoError(t, err)

	result, err := p.Run(context.Background(), "acme traders", healthyBatch())
	require.NoError(t, err)

	report := result.Report
	require.True(t, report.Computable())
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "acme traders", report.Entity)
	assert.Len(t, report.Rules, 5)
	assert.GreaterOrEqual(t, report.FTS, 0.0)
	assert.LessOrEqual(t, report.FTS, 100.0)
	assert.Equal(t, 4, report.Ingestion.SourcesConnected)

	for _, name := range model.RuleNames {
		res, ok := report.Rules[name]
		require.True(t, ok, name)
		assert.Equal(t, name, res.Rule)
		assert.NotEmpty(t, res.Rationale, name)
	}

	// GL, bank, and GST all agree, remittances are full, vouchers match.
	assert.Equal(t, model.StatusPass, report.Rules[model.RuleRevenueIntegrity].Status)
	assert.Equal(t, model.StatusPass, report.Rules[model.RulePayrollConsistency].Status)
	assert.Equal(t, model.StatusPass, report.Rules[model.RuleAuditReadiness].Status)
}

func TestRun_InsufficientSources(t *testing.T) {
	p, err := New(testConfig())
	require.NoError(t, err)

	batch := model.RecordBatch{
		Ledger: []model.LedgerEntry{
			{Date: day(2025, 4, 1), Amount: 100, AccountCode: "4000", Entity: "a"},
			{Date: day(2025, 7, 1), Amount: 100, AccountCode: "4000", Entity: "b"},
		},
	}

	result, err := p.Run(context.Background(), "acme", batch)
	require.NoError(t, err, "a failed contract is an outcome, not an error")

	report := result.Report
	assert.Equal(t, model.OutcomeNotComputable, report.Outcome)
	assert.NotEmpty(t, report.ID)
	assert.Contains(t, report.Rationale, "INSUFFICIENT_DATA")
	assert.Empty(t, report.Rules)
	assert.Zero(t, report.FTS)
}

func TestRun_InsufficientHistory(t *testing.T) {
	p, err := New(testConfig())
	require.NoError(t, err)

	batch := model.RecordBatch{
		Ledger: []model.LedgerEntry{
			{Date: day(2025, 5, 1), Amount: 100, AccountCode: "4000", Entity: "a"},
		},
		Bank: []model.BankTransaction{
			{Date: day(2025, 5, 2), Amount: 100, Type: "deposit", Entity: "a"},
		},
	}

	result, err := p.Run(context.Background(), "acme", batch)
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeNotComputable, result.Report.Outcome)
	assert.Contains(t, result.Report.Rationale, "month(s) of history")
}

func TestRun_MalformedRecordsLogged(t *testing.T) {
	p, err := New(testConfig())
	require.NoError(t, err)

	batch := healthyBatch()
	batch.Bank = append(batch.Bank, model.BankTransaction{Amount: 500, Type: "deposit", Entity: "no-date"})

	result, err := p.Run(context.Background(), "acme", batch)
	require.NoError(t, err)

	require.True(t, result.Report.Computable())
	assert.Equal(t, 1, result.Report.Ingestion.TotalDropped)

	var sawDrop bool
	for _, e := range result.Log {
		if e.Action == model.ActionDropped {
			sawDrop = true
			assert.Contains(t, e.Reason, "MALFORMED_RECORD")
		}
	}
	assert.True(t, sawDrop)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Weights.Revenue = 0.5 // sum now 1.25

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFIG_INVALID")
}

func TestRun_Deterministic(t *testing.T) {
	p, err := New(testConfig())
	require.NoError(t, err)

	first, err := p.Run(context.Background(), "acme", healthyBatch())
	require.NoError(t, err)
	second, err := p.Run(context.Background(), "acme", healthyBatch())
	require.NoError(t, err)

	assert.Equal(t, first.Report.FTS, second.Report.FTS)
	assert.Equal(t, first.Report.Status, second.Report.Status)
	for _, name := range model.RuleNames {
		assert.Equal(t, first.Report.Rules[name].Score, second.Report.Rules[name].Score, name)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	p, err := New(testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Run(ctx, "acme", healthyBatch())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtfti/ftscore/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleReport(entity string, status model.Status) *model.TrustReport {
	return &model.TrustReport{
		ID:         uuid.NewString(),
		Entity:     entity,
		Outcome:    model.OutcomeComputed,
		FTS:        72.5,
		Confidence: 88.0,
		Status:     status,
		Rules: map[string]model.RuleResult{
			model.RuleCashFlow: {Rule: model.RuleCashFlow, Score: 90, Status: model.StatusPass, Weight: 0.25},
		},
		ComputedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	want := sampleReport("acme traders", model.StatusWarn)
	require.NoError(t, s.SaveReport(ctx, want))

	got, err := s.GetReport(ctx, want.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.Entity, got.Entity)
	assert.Equal(t, want.FTS, got.FTS)
	assert.Equal(t, want.Status, got.Status)
	require.Contains(t, got.Rules, model.RuleCashFlow)
	assert.Equal(t, 90.0, got.Rules[model.RuleCashFlow].Score)
}

func TestSQLiteStore_GetMissingReturnsNil(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.GetReport(context.Background(), "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_SaveWithoutID(t *testing.T) {
	s := newTestSQLite(t)

	report := sampleReport("acme", model.StatusPass)
	report.ID = ""
	err := s.SaveReport(context.Background(), report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no id")
}

func TestSQLiteStore_ListFilters(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SaveReport(ctx, sampleReport("acme", model.StatusPass)))
	require.NoError(t, s.SaveReport(ctx, sampleReport("acme", model.StatusWarn)))
	require.NoError(t, s.SaveReport(ctx, sampleReport("beta", model.StatusAlert)))

	all, err := s.ListReports(ctx, ReportFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	acme, err := s.ListReports(ctx, ReportFilter{Entity: "acme"})
	require.NoError(t, err)
	assert.Len(t, acme, 2)

	alerts, err := s.ListReports(ctx, ReportFilter{Status: model.StatusAlert})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "beta", alerts[0].Entity)

	limited, err := s.ListReports(ctx, ReportFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteStore_ListByOutcome(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	nc := sampleReport("gamma", "")
	nc.Outcome = model.OutcomeNotComputable
	nc.Status = ""
	require.NoError(t, s.SaveReport(ctx, nc))
	require.NoError(t, s.SaveReport(ctx, sampleReport("acme", model.StatusPass)))

	got, err := s.ListReports(ctx, ReportFilter{Outcome: model.OutcomeNotComputable})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "gamma", got[0].Entity)
}

package normalize

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rtfti/ftscore/internal/config"
	"github.com/rtfti/ftscore/internal/model"
)

// gstDueDays is the statutory filing offset applied when a filing
// carries no explicit due date: period end plus 20 days (GSTR-3B).
const gstDueDays = 20

// crossSourceWindow is the date slack within which two records from
// different sources count as the same economic event.
const crossSourceWindow = 24 * time.Hour

// Engine maps validated raw records onto the unified schema,
// deduplicates them, and derives the dataset aggregates.
type Engine struct {
	tax Taxonomy
}

// NewEngine builds an Engine, loading the taxonomy override file when
// one is configured.
func NewEngine(cfg config.NormalizeConfig) (*Engine, error) {
	if cfg.TaxonomyPath == "" {
		return &Engine{tax: DefaultTaxonomy()}, nil
	}
	tax, err := LoadTaxonomy(cfg.TaxonomyPath)
	if err != nil {
		return nil, err
	}
	return &Engine{tax: tax}, nil
}

// sourceRank orders sources for cross-source merge priority: the
// earlier-ranked record survives and absorbs corroborators.
var sourceRank = map[model.Source]int{
	model.SourceLedger:  0,
	model.SourceBank:    1,
	model.SourceGST:     2,
	model.SourcePayroll: 3,
}

// Normalize converts a validated batch into the unified dataset. Every
// drop or merge is recorded in the returned log; nothing is discarded
// silently.
func (e *Engine) Normalize(batch model.RecordBatch, now time.Time) (*model.NormalizedDataset, []model.NormalizationLogEntry) {
	var log []model.NormalizationLogEntry
	ds := &model.NormalizedDataset{
		GLRevenueByPeriod: make(map[string]float64),
	}

	records := e.mapRecords(batch, now, ds, &log)
	e.accumulateTotals(records, ds)
	records = dedupCrossSource(records, &log)

	sort.SliceStable(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	ds.Records = records
	deriveAggregates(ds)

	zap.L().Debug("normalize: dataset built",
		zap.Int("records", ds.TotalRecords),
		zap.Int("entities", ds.UniqueEntities),
		zap.Float64("coverage", ds.Coverage),
		zap.Int("log_entries", len(log)),
	)

	return ds, log
}

// mapRecords applies the source-specific mapping rules. Records with
// classifiers the taxonomy cannot resolve are dropped and logged.
// Exact duplicates within a source (same date, signed amount, entity,
// category) collapse to the first occurrence; the sign matters, so a
// posting and its reversal stay distinct records.
func (e *Engine) mapRecords(batch model.RecordBatch, now time.Time, ds *model.NormalizedDataset, log *[]model.NormalizationLogEntry) []model.NormalizedRecord {
	var out []model.NormalizedRecord
	seen := make(map[string]bool)

	add := func(src model.Source, date time.Time, amount float64, entity string, cat model.Category, owed float64, prev *time.Time) {
		key := fmt.Sprintf("%s|%s|%s|%.2f|%s", src, cat, toDay(date).Format("2006-01-02"), amount, entity)
		if seen[key] {
			*log = append(*log, model.NormalizationLogEntry{
				Action: model.ActionMerged,
				Source: src,
				Entity: entity,
				Date:   toDay(date),
				Amount: math.Abs(amount),
				Reason: "duplicate within source collapsed",
			})
			return
		}
		seen[key] = true

		rec := model.NormalizedRecord{
			Date:     toDay(date),
			Amount:   math.Abs(amount),
			Entity:   entity,
			Category: cat,
			Sources:  []model.Source{src},
			Owed:     owed,
		}
		if rec.Date.After(toDay(now)) {
			rec.FutureDated = true
			*log = append(*log, flagEntry(rec, "future-dated record retained"))
		}
		if prev != nil && !prev.IsZero() && rec.Date.Before(*prev) {
			rec.OutOfOrder = true
			*log = append(*log, flagEntry(rec, "out-of-order record retained"))
		}
		if prev != nil {
			*prev = rec.Date
		}
		out = append(out, rec)
	}
	dropUnknown := func(src model.Source, entity, classifier string, date time.Time, amount float64) {
		*log = append(*log, model.NormalizationLogEntry{
			Action: model.ActionDropped,
			Source: src,
			Entity: entity,
			Date:   date,
			Amount: amount,
			Reason: fmt.Sprintf("MALFORMED_RECORD: no taxonomy mapping for %q", classifier),
		})
	}

	var prev time.Time
	for _, r := range batch.Ledger {
		cat, ok := e.tax.MapLedger(r.AccountCode)
		if !ok {
			dropUnknown(model.SourceLedger, r.Entity, r.AccountCode, r.Date, r.Amount)
			continue
		}
		add(model.SourceLedger, r.Date, r.Amount, r.Entity, cat, 0, &prev)
	}

	prev = time.Time{}
	for _, r := range batch.Bank {
		cat, ok := e.tax.MapBank(r.Type)
		if !ok {
			dropUnknown(model.SourceBank, r.Entity, r.Type, r.Date, r.Amount)
			continue
		}
		add(model.SourceBank, r.Date, r.Amount, r.Entity, cat, 0, &prev)
	}

	for _, r := range batch.GST {
		periodStart, err := time.Parse("2006-01", r.Period)
		if err != nil {
			dropUnknown(model.SourceGST, "", r.Period, r.FiledOn, r.ReportedSales)
			continue
		}
		due := r.DueDate
		if due.IsZero() {
			due = periodStart.AddDate(0, 1, gstDueDays-1)
		}
		filing := model.NormalizedFiling{
			Period:        r.Period,
			FiledOn:       r.FiledOn,
			DueDate:       due,
			ReportedSales: r.ReportedSales,
			Present:       !r.FiledOn.IsZero(),
		}
		if filing.Present && r.FiledOn.After(due) {
			filing.LateDays = int(r.FiledOn.Sub(due).Hours() / 24)
		}
		ds.Filings = append(ds.Filings, filing)

		date := r.FiledOn
		if date.IsZero() {
			date = periodStart.AddDate(0, 1, -1)
		}
		add(model.SourceGST, date, r.ReportedSales, "gst-"+r.Period, model.CategoryReportedSales, 0, nil)
	}

	prev = time.Time{}
	for _, r := range batch.Payroll {
		cat, ok := e.tax.MapPayroll(r.Type)
		if !ok {
			dropUnknown(model.SourcePayroll, r.Entity, r.Type, r.Date, r.Amount)
			continue
		}
		add(model.SourcePayroll, r.Date, r.Amount, r.Entity, cat, r.Owed, &prev)
	}

	return out
}

// recordSide classifies a category as an inflow (1) or outflow (-1)
// for cross-source matching. Categories with no counterpart in another
// source return 0 and never merge.
func recordSide(c model.Category) int {
	switch c {
	case model.CategoryRevenue, model.CategoryDeposit:
		return 1
	case model.CategoryExpense, model.CategoryWithdrawal, model.CategorySalary, model.CategoryPF, model.CategoryESI:
		return -1
	}
	return 0
}

// dedupCrossSource merges records from different sources that represent
// the same economic event: same entity, same magnitude moving in the
// same direction, dates within one day. An inflow never corroborates an
// outflow. The surviving record is tagged with every corroborating
// source.
func dedupCrossSource(records []model.NormalizedRecord, log *[]model.NormalizationLogEntry) []model.NormalizedRecord {
	type groupKey struct {
		entity string
		amount float64
	}
	groups := make(map[groupKey][]int)
	for i, r := range records {
		groups[groupKey{r.Entity, r.Amount}] = append(groups[groupKey{r.Entity, r.Amount}], i)
	}

	absorbed := make([]bool, len(records))
	for _, idxs := range groups {
		if len(idxs) < 2 {
			continue
		}
		sort.Slice(idxs, func(a, b int) bool {
			ra, rb := records[idxs[a]], records[idxs[b]]
			if sourceRank[ra.Origin()] != sourceRank[rb.Origin()] {
				return sourceRank[ra.Origin()] < sourceRank[rb.Origin()]
			}
			return ra.Date.Before(rb.Date)
		})
		for i, base := range idxs {
			if absorbed[base] {
				continue
			}
			for _, cand := range idxs[i+1:] {
				if absorbed[cand] {
					continue
				}
				rb, rc := &records[base], records[cand]
				if rc.Origin() == rb.Origin() || rb.CorroboratedBy(rc.Origin()) {
					continue
				}
				if side := recordSide(rb.Category); side == 0 || side != recordSide(rc.Category) {
					continue
				}
				if gap := rb.Date.Sub(rc.Date); gap > crossSourceWindow || gap < -crossSourceWindow {
					continue
				}
				rb.Sources = append(rb.Sources, rc.Origin())
				absorbed[cand] = true
				*log = append(*log, model.NormalizationLogEntry{
					Action: model.ActionMerged,
					Source: rc.Origin(),
					Entity: rc.Entity,
					Date:   rc.Date,
					Amount: rc.Amount,
					Reason: fmt.Sprintf("corroborates %s record for same economic event", rb.Origin()),
				})
			}
		}
	}

	out := make([]model.NormalizedRecord, 0, len(records))
	for i, r := range records {
		if !absorbed[i] {
			out = append(out, r)
		}
	}
	return out
}

// accumulateTotals computes per-source volume aggregates before
// cross-source merging so corroborated events still count toward every
// source that reported them.
func (e *Engine) accumulateTotals(records []model.NormalizedRecord, ds *model.NormalizedDataset) {
	t := &ds.Totals
	for _, r := range records {
		switch r.Origin() {
		case model.SourceLedger:
			switch r.Category {
			case model.CategoryRevenue:
				t.GLRevenue += r.Amount
				ds.GLRevenueByPeriod[r.Period()] += r.Amount
			case model.CategoryExpense:
				t.GLExpense += r.Amount
			}
		case model.SourceBank:
			switch r.Category {
			case model.CategoryDeposit:
				t.BankDeposits += r.Amount
			case model.CategoryWithdrawal:
				t.BankWithdrawals += r.Amount
			}
		case model.SourceGST:
			t.GSTReportedSales += r.Amount
		case model.SourcePayroll:
			switch r.Category {
			case model.CategorySalary:
				t.PayrollSalary += r.Amount
				t.SalaryDates = append(t.SalaryDates, r.Date)
			case model.CategoryPF:
				t.PFRemitted += r.Amount
				t.PFOwed += r.Owed
			case model.CategoryESI:
				t.ESIRemitted += r.Amount
				t.ESIOwed += r.Owed
			}
		}
	}
	sort.Slice(t.SalaryDates, func(i, j int) bool { return t.SalaryDates[i].Before(t.SalaryDates[j]) })
}

// deriveAggregates fills the dataset-level counters. Coverage is
// clamped to [0,1] and zero records yield zero coverage.
func deriveAggregates(ds *model.NormalizedDataset) {
	entities := make(map[string]bool)
	for _, r := range ds.Records {
		entities[r.Entity] = true
		switch r.Category {
		case model.CategoryRevenue, model.CategoryDeposit:
			ds.TotalCredits += r.Amount
		case model.CategoryExpense, model.CategoryWithdrawal, model.CategorySalary, model.CategoryPF, model.CategoryESI:
			ds.TotalDebits += r.Amount
		}
		if ds.WindowStart.IsZero() || r.Date.Before(ds.WindowStart) {
			ds.WindowStart = r.Date
		}
		if r.Date.After(ds.WindowEnd) {
			ds.WindowEnd = r.Date
		}
	}
	ds.UniqueEntities = len(entities)
	ds.TotalRecords = len(ds.Records)
	if ds.TotalRecords > 0 {
		ds.Coverage = clamp01(float64(ds.UniqueEntities) / float64(ds.TotalRecords))
	}
}

func flagEntry(r model.NormalizedRecord, reason string) model.NormalizationLogEntry {
	return model.NormalizationLogEntry{
		Action: model.ActionFlagged,
		Source: r.Origin(),
		Entity: r.Entity,
		Date:   r.Date,
		Amount: r.Amount,
		Reason: reason,
	}
}

func toDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func clamp01(f float64) float64 {
	return math.Min(1, math.Max(0, f))
}

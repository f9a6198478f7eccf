package ingest

import (
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rtfti/ftscore/internal/config"
	"github.com/rtfti/ftscore/internal/model"
)

// ErrInsufficientData marks a run that fails the minimum data contract.
// The pipeline converts it into a NOT_COMPUTABLE report rather than a
// partial score.
var ErrInsufficientData = eris.New("INSUFFICIENT_DATA")

// Gateway validates raw record collections and produces the ingestion
// report. Malformed records are dropped and counted, never fatal; only
// the minimum data contract aborts a run.
type Gateway struct {
	cfg config.IngestConfig
}

// NewGateway creates a Gateway with the given contract settings.
func NewGateway(cfg config.IngestConfig) *Gateway {
	return &Gateway{cfg: cfg}
}

// Ingest validates the batch, drops malformed records, and returns the
// report, the surviving records, and a log entry per drop.
func (g *Gateway) Ingest(batch model.RecordBatch, now time.Time) (*model.IngestionReport, model.RecordBatch, []model.NormalizationLogEntry) {
	report := &model.IngestionReport{
		Sources:    make(map[model.Source]*model.SourceIngestion, len(model.AllSources)),
		IngestedAt: now,
	}
	for _, src := range model.AllSources {
		report.Sources[src] = &model.SourceIngestion{Source: src}
	}

	var valid model.RecordBatch
	var log []model.NormalizationLogEntry
	var earliest, latest time.Time

	observe := func(src model.Source, date time.Time) {
		si := report.Sources[src]
		si.Valid++
		if date.After(si.Newest) {
			si.Newest = date
		}
		if earliest.IsZero() || date.Before(earliest) {
			earliest = date
		}
		if date.After(latest) {
			latest = date
		}
	}
	drop := func(src model.Source, entity string, date time.Time, amount float64, reason string) {
		report.Sources[src].Dropped++
		log = append(log, model.NormalizationLogEntry{
			Action: model.ActionDropped,
			Source: src,
			Entity: entity,
			Date:   date,
			Amount: amount,
			Reason: "MALFORMED_RECORD: " + reason,
		})
	}

	for _, r := range batch.Ledger {
		report.Sources[model.SourceLedger].Received++
		if reason := checkCommon(r.Date, r.Amount, r.AccountCode); reason != "" {
			drop(model.SourceLedger, r.Entity, r.Date, r.Amount, reason)
			continue
		}
		valid.Ledger = append(valid.Ledger, r)
		observe(model.SourceLedger, r.Date)
	}

	for _, r := range batch.Bank {
		report.Sources[model.SourceBank].Received++
		if reason := checkCommon(r.Date, r.Amount, r.Type); reason != "" {
			drop(model.SourceBank, r.Entity, r.Date, r.Amount, reason)
			continue
		}
		valid.Bank = append(valid.Bank, r)
		observe(model.SourceBank, r.Date)
	}

	for _, r := range batch.GST {
		report.Sources[model.SourceGST].Received++
		date := filingDate(r)
		switch {
		case r.Period == "":
			drop(model.SourceGST, "", date, r.ReportedSales, "missing period")
			continue
		case !validPeriod(r.Period):
			drop(model.SourceGST, "", date, r.ReportedSales, "unparseable period "+r.Period)
			continue
		case !finite(r.ReportedSales):
			drop(model.SourceGST, "", date, r.ReportedSales, "missing amount")
			continue
		}
		valid.GST = append(valid.GST, r)
		observe(model.SourceGST, date)
	}

	for _, r := range batch.Payroll {
		report.Sources[model.SourcePayroll].Received++
		if reason := checkCommon(r.Date, r.Amount, r.Type); reason != "" {
			drop(model.SourcePayroll, r.Entity, r.Date, r.Amount, reason)
			continue
		}
		valid.Payroll = append(valid.Payroll, r)
		observe(model.SourcePayroll, r.Date)
	}

	for _, si := range report.Sources {
		si.Connected = si.Valid > 0
		if si.Connected {
			report.SourcesConnected++
		}
		report.TotalReceived += si.Received
		report.TotalDropped += si.Dropped
	}
	if !latest.IsZero() {
		report.Freshness = now.Sub(latest)
		report.HistoryMonths = monthsSpanned(earliest, latest)
	}

	if report.TotalDropped > 0 {
		zap.L().Warn("ingest: dropped malformed records",
			zap.Int("dropped", report.TotalDropped),
			zap.Int("received", report.TotalReceived),
		)
	}
	zap.L().Debug("ingest: batch accepted",
		zap.Int("sources_connected", report.SourcesConnected),
		zap.Int("history_months", report.HistoryMonths),
	)

	return report, valid, log
}

// CheckContract enforces the minimum data contract: enough connected
// sources and enough combined date coverage.
func (g *Gateway) CheckContract(report *model.IngestionReport) error {
	if report.SourcesConnected < g.cfg.MinSources {
		return eris.Wrapf(ErrInsufficientData,
			"%d connected source(s), minimum %d", report.SourcesConnected, g.cfg.MinSources)
	}
	if report.HistoryMonths < g.cfg.MinHistoryMonths {
		return eris.Wrapf(ErrInsufficientData,
			"%d month(s) of history, minimum %d", report.HistoryMonths, g.cfg.MinHistoryMonths)
	}
	return nil
}

func checkCommon(date time.Time, amount float64, classifier string) string {
	switch {
	case date.IsZero():
		return "missing date"
	case !finite(amount):
		return "missing amount"
	case classifier == "":
		return "unparseable category"
	}
	return ""
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func validPeriod(p string) bool {
	_, err := time.Parse("2006-01", p)
	return err == nil
}

func filingDate(f model.TaxFiling) time.Time {
	if !f.FiledOn.IsZero() {
		return f.FiledOn
	}
	if t, err := time.Parse("2006-01", f.Period); err == nil {
		return t.AddDate(0, 1, -1) // period end
	}
	return time.Time{}
}

// monthsSpanned counts the months of date coverage across [earliest,
// latest]: the whole months elapsed plus the partial month in progress.
// Two records a month apart span two months no matter how the calendar
// boundaries fall.
func monthsSpanned(earliest, latest time.Time) int {
	if earliest.IsZero() || latest.Before(earliest) {
		return 0
	}
	months := 1
	for !earliest.AddDate(0, months, 0).After(latest) {
		months++
	}
	return months
}

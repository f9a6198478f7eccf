// Package pipeline wires the four stages of a scoring run: ingestion,
// normalization, rule evaluation, and trust aggregation. A run is a
// pure synchronous transformation of a record batch into a TrustReport.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rtfti/ftscore/internal/config"
	"github.com/rtfti/ftscore/internal/ingest"
	"github.com/rtfti/ftscore/internal/model"
	"github.com/rtfti/ftscore/internal/normalize"
	"github.com/rtfti/ftscore/internal/rules"
	"github.com/rtfti/ftscore/internal/trust"
)

// Result carries the report plus the evidence trail of a single run.
type Result struct {
	Report  *model.TrustReport
	Dataset *model.NormalizedDataset
	Log     []model.NormalizationLogEntry
}

// Pipeline orchestrates one scoring run end to end.
type Pipeline struct {
	cfg     *config.Config
	gateway *ingest.Gateway
	engine  *normalize.Engine
	rules   []rules.Rule
}

// New builds a pipeline from validated configuration.
func New(cfg *config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrap(err, "pipeline: CONFIG_INVALID")
	}
	engine, err := normalize.NewEngine(cfg.Normalize)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: build normalization engine")
	}
	return &Pipeline{
		cfg:     cfg,
		gateway: ingest.NewGateway(cfg.Ingest),
		engine:  engine,
		rules:   rules.All(cfg),
	}, nil
}

// Run scores one entity's record batch. A failed minimum data contract
// is a valid outcome, not an error: the result carries a NOT_COMPUTABLE
// report and Run returns nil.
func (p *Pipeline) Run(ctx context.Context, entity string, batch model.RecordBatch) (*Result, error) {
	now := time.Now().UTC()

	ingReport, valid, dropLog := p.gateway.Ingest(batch, now)

	if err := p.gateway.CheckContract(ingReport); err != nil {
		zap.L().Info("pipeline: contract not met",
			zap.String("entity", entity),
			zap.Int("sources_connected", ingReport.SourcesConnected),
			zap.Int("history_months", ingReport.HistoryMonths),
		)
		report := trust.NotComputable(entity, ingReport, eris.ToString(err, false))
		report.ID = uuid.NewString()
		return &Result{Report: report, Log: dropLog}, nil
	}

	ds, normLog := p.engine.Normalize(valid, now)
	log := append(dropLog, normLog...)

	results, err := p.evaluate(ctx, ds)
	if err != nil {
		return nil, err
	}

	report := trust.Aggregate(p.cfg, entity, ingReport, ds, results)
	report.ID = uuid.NewString()

	zap.L().Info("pipeline: run complete",
		zap.String("entity", entity),
		zap.String("report_id", report.ID),
		zap.Float64("fts", report.FTS),
		zap.Float64("confidence", report.Confidence),
		zap.String("status", string(report.Status)),
	)
	return &Result{Report: report, Dataset: ds, Log: log}, nil
}

// evaluate runs the five rules concurrently. Rules are independent and
// read-only over the dataset.
func (p *Pipeline) evaluate(ctx context.Context, ds *model.NormalizedDataset) (map[string]model.RuleResult, error) {
	results := make(map[string]model.RuleResult, len(p.rules))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	for _, rule := range p.rules {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			res := rule.Evaluate(ds)
			mu.Lock()
			results[rule.Name()] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: evaluate rules")
	}
	return results, nil
}

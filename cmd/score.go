package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rtfti/ftscore/internal/fetcher"
	"github.com/rtfti/ftscore/internal/model"
	"github.com/rtfti/ftscore/internal/pipeline"
)

var scoreFlags struct {
	entity  string
	ledger  string
	bank    string
	gst     string
	payroll string
	batch   string
	format  string
	save    bool
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one business from source exports",
	Long: `Score a business from its accounting exports. Each source is an
optional CSV or XLSX file; at least two connected sources spanning three
months of history are required to compute a score.

Examples:
  # Score from ledger and bank exports
  ftscore score --entity "acme traders" --ledger gl.csv --bank bank.csv

  # All four sources, JSON output, persisted to the report store
  ftscore score --entity "acme traders" --ledger gl.csv --bank bank.xlsx \
    --gst gst.csv --payroll payroll.csv --format json --save

  # Pre-assembled JSON batch from a file or stdin
  ftscore score --entity "acme traders" --batch batch.json
  cat batch.json | ftscore score --entity "acme traders" --batch -`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.StringVar(&scoreFlags.entity, "entity", "", "business name (required)")
	f.StringVar(&scoreFlags.ledger, "ledger", "", "general ledger export path")
	f.StringVar(&scoreFlags.bank, "bank", "", "bank statement export path")
	f.StringVar(&scoreFlags.gst, "gst", "", "GST filing export path")
	f.StringVar(&scoreFlags.payroll, "payroll", "", "payroll export path")
	f.StringVar(&scoreFlags.batch, "batch", "", "JSON record batch path, - for stdin (overrides per-source flags)")
	f.StringVar(&scoreFlags.format, "format", "text", "output format (text|json)")
	f.BoolVar(&scoreFlags.save, "save", false, "persist the report to the store")
	_ = scoreCmd.MarkFlagRequired("entity")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	batch, err := loadScoreBatch()
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	result, err := p.Run(ctx, scoreFlags.entity, batch)
	if err != nil {
		return err
	}

	if scoreFlags.save {
		s, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.SaveReport(ctx, result.Report); err != nil {
			return err
		}
	}

	return printReport(result.Report, scoreFlags.format)
}

func loadScoreBatch() (model.RecordBatch, error) {
	if scoreFlags.batch == "" {
		return fetcher.LoadBatch(fetcher.Inputs{
			Ledger:  scoreFlags.ledger,
			Bank:    scoreFlags.bank,
			GST:     scoreFlags.gst,
			Payroll: scoreFlags.payroll,
		})
	}

	var batch model.RecordBatch
	r := os.Stdin
	if scoreFlags.batch != "-" {
		f, err := os.Open(scoreFlags.batch)
		if err != nil {
			return batch, eris.Wrapf(err, "score: open batch %s", scoreFlags.batch)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&batch); err != nil {
		return batch, eris.Wrap(err, "score: decode batch")
	}
	return batch, nil
}

func printReport(report *model.TrustReport, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(report), "score: encode report")
	case "text":
		printTextReport(report)
		return nil
	default:
		return eris.Errorf("score: unknown format %q", format)
	}
}

func printTextReport(report *model.TrustReport) {
	p := message.NewPrinter(language.English)

	p.Printf("Entity:      %s\n", report.Entity)
	if !report.Computable() {
		p.Printf("Outcome:     NOT COMPUTABLE\n")
		p.Printf("Reason:      %s\n", report.Rationale)
		if report.Ingestion != nil {
			p.Printf("Sources:     %d connected, %d month(s) of history\n",
				report.Ingestion.SourcesConnected, report.Ingestion.HistoryMonths)
		}
		return
	}

	p.Printf("Trust score: %.1f (%s)\n", report.FTS, report.Status)
	p.Printf("Confidence:  %.1f\n", report.Confidence)
	p.Printf("Rationale:   %s\n\n", report.Rationale)

	for _, name := range model.RuleNames {
		res, ok := report.Rules[name]
		if !ok {
			continue
		}
		p.Printf("  %-20s %6.1f  %-5s  %s\n", res.Rule, res.Score, res.Status, res.Rationale)
	}

	if report.Ingestion != nil {
		p.Printf("\nIngested %d record(s), dropped %d\n",
			report.Ingestion.TotalReceived, report.Ingestion.TotalDropped)
	}
}

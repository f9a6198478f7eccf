package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rtfti/ftscore/internal/model"
	"github.com/rtfti/ftscore/internal/store"
)

var reportsFlags struct {
	entity string
	status string
	limit  int
	format string
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List stored trust reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()

		reports, err := s.ListReports(ctx, store.ReportFilter{
			Entity: reportsFlags.entity,
			Status: model.Status(reportsFlags.status),
			Limit:  reportsFlags.limit,
		})
		if err != nil {
			return err
		}

		if reportsFlags.format == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(reports)
		}

		p := message.NewPrinter(language.English)
		p.Printf("%-36s  %-24s  %6s  %6s  %-5s  %s\n",
			"ID", "ENTITY", "FTS", "CONF", "STAT", "COMPUTED")
		for _, r := range reports {
			status := string(r.Status)
			if !r.Computable() {
				status = "N/C"
			}
			p.Printf("%-36s  %-24s  %6.1f  %6.1f  %-5s  %s\n",
				r.ID, r.Entity, r.FTS, r.Confidence, status,
				r.ComputedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	f := reportsCmd.Flags()
	f.StringVar(&reportsFlags.entity, "entity", "", "filter by business name")
	f.StringVar(&reportsFlags.status, "status", "", "filter by status (PASS|WARN|ALERT)")
	f.IntVar(&reportsFlags.limit, "limit", 50, "maximum rows")
	f.StringVar(&reportsFlags.format, "format", "text", "output format (text|json)")
	rootCmd.AddCommand(reportsCmd)
}

// Package fetcher loads raw record batches from CSV and XLSX exports.
// It parses shapes only; content validation belongs to the ingestion
// gateway.
package fetcher

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/rtfti/ftscore/internal/model"
)

// Inputs names one export file per source. Empty paths mean the source
// is not connected.
type Inputs struct {
	Ledger  string
	Bank    string
	GST     string
	Payroll string
}

// dateLayouts are tried in order when parsing record dates.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "2006-01-02T15:04:05Z07:00"}

// LoadBatch reads every named export into a single raw batch. File
// format is chosen by extension (.csv or .xlsx).
func LoadBatch(in Inputs) (model.RecordBatch, error) {
	var batch model.RecordBatch

	if in.Ledger != "" {
		rows, err := loadLedger(in.Ledger)
		if err != nil {
			return batch, eris.Wrapf(err, "fetcher: load ledger %s", in.Ledger)
		}
		batch.Ledger = rows
	}
	if in.Bank != "" {
		rows, err := loadBank(in.Bank)
		if err != nil {
			return batch, eris.Wrapf(err, "fetcher: load bank %s", in.Bank)
		}
		batch.Bank = rows
	}
	if in.GST != "" {
		rows, err := loadGST(in.GST)
		if err != nil {
			return batch, eris.Wrapf(err, "fetcher: load gst %s", in.GST)
		}
		batch.GST = rows
	}
	if in.Payroll != "" {
		rows, err := loadPayroll(in.Payroll)
		if err != nil {
			return batch, eris.Wrapf(err, "fetcher: load payroll %s", in.Payroll)
		}
		batch.Payroll = rows
	}

	return batch, nil
}

func format(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

func loadLedger(path string) ([]model.LedgerEntry, error) {
	switch format(path) {
	case "csv":
		return csvLedger(path)
	case "xlsx":
		return xlsxLedger(path)
	default:
		return nil, eris.Errorf("unsupported format %q", format(path))
	}
}

func loadBank(path string) ([]model.BankTransaction, error) {
	switch format(path) {
	case "csv":
		return csvBank(path)
	case "xlsx":
		return xlsxBank(path)
	default:
		return nil, eris.Errorf("unsupported format %q", format(path))
	}
}

func loadGST(path string) ([]model.TaxFiling, error) {
	switch format(path) {
	case "csv":
		return csvGST(path)
	case "xlsx":
		return xlsxGST(path)
	default:
		return nil, eris.Errorf("unsupported format %q", format(path))
	}
}

func loadPayroll(path string) ([]model.PayrollEntry, error) {
	switch format(path) {
	case "csv":
		return csvPayroll(path)
	case "xlsx":
		return xlsxPayroll(path)
	default:
		return nil, eris.Errorf("unsupported format %q", format(path))
	}
}

package fetcher

import (
	"encoding/csv"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/rtfti/ftscore/internal/model"
)

// flexDate accepts the date layouts seen across accounting exports.
// An empty cell decodes to the zero time; the gateway drops it later.
type flexDate time.Time

func (d *flexDate) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*d = flexDate(time.Time{})
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*d = flexDate(t.UTC())
			return nil
		}
	}
	return eris.Errorf("unparseable date %q", s)
}

func (d flexDate) Time() time.Time { return time.Time(d) }

type ledgerRow struct {
	Date        flexDate `csv:"date"`
	Amount      float64  `csv:"amount"`
	AccountCode string   `csv:"account_code"`
	Entity      string   `csv:"entity"`
	SourceID    string   `csv:"source_id,omitempty"`
}

type bankRow struct {
	Date     flexDate `csv:"date"`
	Amount   float64  `csv:"amount"`
	Type     string   `csv:"type"`
	Entity   string   `csv:"entity"`
	SourceID string   `csv:"source_id,omitempty"`
}

type gstRow struct {
	Period        string   `csv:"period"`
	FiledOn       flexDate `csv:"filed_on"`
	DueDate       flexDate `csv:"due_date,omitempty"`
	ReportedSales float64  `csv:"reported_sales"`
	Status        string   `csv:"status,omitempty"`
	SourceID      string   `csv:"source_id,omitempty"`
}

type payrollRow struct {
	Date     flexDate `csv:"date"`
	Amount   float64  `csv:"amount"`
	Type     string   `csv:"type"`
	Owed     float64  `csv:"owed,omitempty"`
	Entity   string   `csv:"entity"`
	SourceID string   `csv:"source_id,omitempty"`
}

// decodeCSV streams path through csvutil into rows of type T.
func decodeCSV[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "csv: open file")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	dec, err := csvutil.NewDecoder(reader)
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}

	var rows []T
	for {
		var row T
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "csv: decode row")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func csvLedger(path string) ([]model.LedgerEntry, error) {
	rows, err := decodeCSV[ledgerRow](path)
	if err != nil {
		return nil, err
	}
	out := make([]model.LedgerEntry, len(rows))
	for i, r := range rows {
		out[i] = model.LedgerEntry{
			Date:        r.Date.Time(),
			Amount:      r.Amount,
			AccountCode: r.AccountCode,
			Entity:      r.Entity,
			SourceID:    r.SourceID,
		}
	}
	return out, nil
}

func csvBank(path string) ([]model.BankTransaction, error) {
	rows, err := decodeCSV[bankRow](path)
	if err != nil {
		return nil, err
	}
	out := make([]model.BankTransaction, len(rows))
	for i, r := range rows {
		out[i] = model.BankTransaction{
			Date:     r.Date.Time(),
			Amount:   r.Amount,
			Type:     r.Type,
			Entity:   r.Entity,
			SourceID: r.SourceID,
		}
	}
	return out, nil
}

func csvGST(path string) ([]model.TaxFiling, error) {
	rows, err := decodeCSV[gstRow](path)
	if err != nil {
		return nil, err
	}
	out := make([]model.TaxFiling, len(rows))
	for i, r := range rows {
		out[i] = model.TaxFiling{
			Period:        r.Period,
			FiledOn:       r.FiledOn.Time(),
			DueDate:       r.DueDate.Time(),
			ReportedSales: r.ReportedSales,
			Status:        r.Status,
			SourceID:      r.SourceID,
		}
	}
	return out, nil
}

func csvPayroll(path string) ([]model.PayrollEntry, error) {
	rows, err := decodeCSV[payrollRow](path)
	if err != nil {
		return nil, err
	}
	out := make([]model.PayrollEntry, len(rows))
	for i, r := range rows {
		out[i] = model.PayrollEntry{
			Date:     r.Date.Time(),
			Amount:   r.Amount,
			Type:     r.Type,
			Owed:     r.Owed,
			Entity:   r.Entity,
			SourceID: r.SourceID,
		}
	}
	return out, nil
}

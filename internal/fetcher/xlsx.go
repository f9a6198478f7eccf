package fetcher

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/rtfti/ftscore/internal/model"
)

// sheetRows opens the first sheet and returns a column index keyed by
// lowercased header name plus the data rows.
func sheetRows(path string) (map[string]int, [][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "xlsx: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, nil, eris.New("xlsx: file has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, nil, eris.New("xlsx: sheet is empty")
	}

	header := make(map[string]int)
	for j, cell := range sheet.Rows[0].Cells {
		header[strings.ToLower(strings.TrimSpace(cell.String()))] = j
	}

	var rows [][]string
	for _, row := range sheet.Rows[1:] {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = strings.TrimSpace(cell.String())
		}
		rows = append(rows, cells)
	}
	return header, rows, nil
}

func cellAt(row []string, header map[string]int, name string) string {
	j, ok := header[name]
	if !ok || j >= len(row) {
		return ""
	}
	return row[j]
}

func cellDate(row []string, header map[string]int, name string) time.Time {
	s := cellAt(row, header, name)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	// Serial date cells come back as formatted floats from some exports.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return xlsx.TimeFromExcelTime(f, false).UTC()
	}
	return time.Time{}
}

func cellFloat(row []string, header map[string]int, name string) float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(cellAt(row, header, name), ",", ""), 64)
	if err != nil {
		return 0
	}
	return f
}

func xlsxLedger(path string) ([]model.LedgerEntry, error) {
	header, rows, err := sheetRows(path)
	if err != nil {
		return nil, err
	}
	out := make([]model.LedgerEntry, len(rows))
	for i, row := range rows {
		out[i] = model.LedgerEntry{
			Date:        cellDate(row, header, "date"),
			Amount:      cellFloat(row, header, "amount"),
			AccountCode: cellAt(row, header, "account_code"),
			Entity:      cellAt(row, header, "entity"),
			SourceID:    cellAt(row, header, "source_id"),
		}
	}
	return out, nil
}

func xlsxBank(path string) ([]model.BankTransaction, error) {
	header, rows, err := sheetRows(path)
	if err != nil {
		return nil, err
	}
	out := make([]model.BankTransaction, len(rows))
	for i, row := range rows {
		out[i] = model.BankTransaction{
			Date:     cellDate(row, header, "date"),
			Amount:   cellFloat(row, header, "amount"),
			Type:     cellAt(row, header, "type"),
			Entity:   cellAt(row, header, "entity"),
			SourceID: cellAt(row, header, "source_id"),
		}
	}
	return out, nil
}

func xlsxGST(path string) ([]model.TaxFiling, error) {
	header, rows, err := sheetRows(path)
	if err != nil {
		return nil, err
	}
	out := make([]model.TaxFiling, len(rows))
	for i, row := range rows {
		out[i] = model.TaxFiling{
			Period:        cellAt(row, header, "period"),
			FiledOn:       cellDate(row, header, "filed_on"),
			DueDate:       cellDate(row, header, "due_date"),
			ReportedSales: cellFloat(row, header, "reported_sales"),
			Status:        cellAt(row, header, "status"),
			SourceID:      cellAt(row, header, "source_id"),
		}
	}
	return out, nil
}

func xlsxPayroll(path string) ([]model.PayrollEntry, error) {
	header, rows, err := sheetRows(path)
	if err != nil {
		return nil, err
	}
	out := make([]model.PayrollEntry, len(rows))
	for i, row := range rows {
		out[i] = model.PayrollEntry{
			Date:     cellDate(row, header, "date"),
			Amount:   cellFloat(row, header, "amount"),
			Type:     cellAt(row, header, "type"),
			Owed:     cellFloat(row, header, "owed"),
			Entity:   cellAt(row, header, "entity"),
			SourceID: cellAt(row, header, "source_id"),
		}
	}
	return out, nil
}

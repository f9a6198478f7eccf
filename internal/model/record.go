package model

import "time"

// Source identifies one of the four raw record categories the pipeline
// consumes.
type Source string

const (
	SourceLedger  Source = "general_ledger"
	SourceBank    Source = "bank"
	SourceGST     Source = "gst"
	SourcePayroll Source = "payroll"
)

// AllSources lists the four record categories in canonical order.
var AllSources = []Source{SourceLedger, SourceBank, SourceGST, SourcePayroll}

// LedgerEntry is a single general-ledger journal line. Amount is signed:
// credits positive, debits negative.
type LedgerEntry struct {
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	AccountCode string    `json:"account_code"`
	Entity      string    `json:"entity"`
	SourceID    string    `json:"source_id"`
}

// BankTransaction is a single bank-statement line.
type BankTransaction struct {
	Date     time.Time `json:"date"`
	Amount   float64   `json:"amount"`
	Type     string    `json:"type"` // deposit, withdrawal
	Entity   string    `json:"entity"`
	SourceID string    `json:"source_id"`
}

// TaxFiling is one GST return. FiledOn is zero for a period that was
// never filed; ReportedSales is the revenue figure declared for the
// period.
type TaxFiling struct {
	Period        string    `json:"period"` // YYYY-MM
	FiledOn       time.Time `json:"filed_on"`
	DueDate       time.Time `json:"due_date"`
	ReportedSales float64   `json:"reported_sales"`
	Status        string    `json:"status"` // filed, late, missing
	SourceID      string    `json:"source_id"`
}

// PayrollEntry is one payroll disbursement or statutory remittance.
// For pf/esi rows Amount is the amount actually remitted and Owed the
// statutory liability for the run.
type PayrollEntry struct {
	Date     time.Time `json:"date"`
	Amount   float64   `json:"amount"`
	Type     string    `json:"type"` // salary, pf, esi
	Owed     float64   `json:"owed,omitempty"`
	Entity   string    `json:"entity"`
	SourceID string    `json:"source_id"`
}

// RecordBatch is the full raw input of one pipeline run: one collection
// per source category. Collections may be empty; the ingestion gateway
// decides whether enough of them are usable.
type RecordBatch struct {
	Ledger  []LedgerEntry     `json:"ledger"`
	Bank    []BankTransaction `json:"bank"`
	GST     []TaxFiling       `json:"gst"`
	Payroll []PayrollEntry    `json:"payroll"`
}

// Count returns the total number of raw records across all sources.
func (b RecordBatch) Count() int {
	return len(b.Ledger) + len(b.Bank) + len(b.GST) + len(b.Payroll)
}

// Entity is the business profile a batch belongs to. Carried through to
// the trust report for the caller's benefit; the pipeline itself only
// scores records.
type Entity struct {
	Name             string  `json:"name"`
	Sector           string  `json:"sector"`
	TurnoverCr       float64 `json:"turnover_cr"`
	Employees        int     `json:"employees"`
	GSTRegistered    bool    `json:"gst_registered"`
	AccountAgeMonths int     `json:"account_age_months"`
}

package model

import "time"

// Category is the canonical classification a raw record's
// source-specific classifier maps to.
type Category string

const (
	CategoryRevenue       Category = "revenue"
	CategoryExpense       Category = "expense"
	CategoryAsset         Category = "asset"
	CategoryLiability     Category = "liability"
	CategoryDeposit       Category = "deposit"
	CategoryWithdrawal    Category = "withdrawal"
	CategoryReportedSales Category = "reported_sales"
	CategorySalary        Category = "salary"
	CategoryPF            Category = "pf"
	CategoryESI           Category = "esi"
)

// NormalizedRecord is the unified shape every surviving raw record maps
// to. Sources lists the record categories that corroborate it; the
// first element is the origin source, additional elements are added by
// cross-source deduplication.
type NormalizedRecord struct {
	Date        time.Time `json:"date"` // UTC, truncated to day
	Amount      float64   `json:"amount"`
	Entity      string    `json:"entity"`
	Category    Category  `json:"category"`
	Sources     []Source  `json:"sources"`
	Owed        float64   `json:"owed,omitempty"` // statutory liability, pf/esi only
	FutureDated bool      `json:"future_dated,omitempty"`
	OutOfOrder  bool      `json:"out_of_order,omitempty"`
}

// Origin returns the source the record was ingested from.
func (r NormalizedRecord) Origin() Source {
	if len(r.Sources) == 0 {
		return ""
	}
	return r.Sources[0]
}

// CorroboratedBy reports whether src vouches for this record.
func (r NormalizedRecord) CorroboratedBy(src Source) bool {
	for _, s := range r.Sources {
		if s == src {
			return true
		}
	}
	return false
}

// Period returns the record's calendar month as YYYY-MM.
func (r NormalizedRecord) Period() string {
	return r.Date.Format("2006-01")
}

// NormalizedFiling keeps the GST-return metadata the tax compliance
// rule needs beyond what fits a NormalizedRecord.
type NormalizedFiling struct {
	Period        string    `json:"period"`
	FiledOn       time.Time `json:"filed_on"`
	DueDate       time.Time `json:"due_date"`
	ReportedSales float64   `json:"reported_sales"`
	Present       bool      `json:"present"`
	LateDays      int       `json:"late_days"`
}

// SourceTotals holds per-source volume aggregates computed after
// within-source deduplication but before cross-source merging, so a
// corroborated record still counts toward every source that reported it.
type SourceTotals struct {
	GLRevenue        float64     `json:"gl_revenue"`
	GLExpense        float64     `json:"gl_expense"`
	BankDeposits     float64     `json:"bank_deposits"`
	BankWithdrawals  float64     `json:"bank_withdrawals"`
	GSTReportedSales float64     `json:"gst_reported_sales"`
	PayrollSalary    float64     `json:"payroll_salary"`
	PFOwed           float64     `json:"pf_owed"`
	PFRemitted       float64     `json:"pf_remitted"`
	ESIOwed          float64     `json:"esi_owed"`
	ESIRemitted      float64     `json:"esi_remitted"`
	SalaryDates      []time.Time `json:"-"`
}

// NormalizedDataset is the pipeline's unified working set: deduplicated
// records in date order plus the derived aggregates every rule reads.
type NormalizedDataset struct {
	Records []NormalizedRecord `json:"records"`
	Filings []NormalizedFiling `json:"filings"`
	Totals  SourceTotals       `json:"totals"`

	TotalCredits   float64 `json:"total_credits"`
	TotalDebits    float64 `json:"total_debits"`
	UniqueEntities int     `json:"unique_entities"`
	TotalRecords   int     `json:"total_records"`
	Coverage       float64 `json:"coverage"` // unique_entities / total_records, clamped [0,1]

	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`

	// GLRevenueByPeriod supports per-period GST vs GL reconciliation.
	GLRevenueByPeriod map[string]float64 `json:"gl_revenue_by_period,omitempty"`
}

// NormalizationAction classifies a normalization log entry.
type NormalizationAction string

const (
	ActionDropped NormalizationAction = "dropped"
	ActionMerged  NormalizationAction = "merged"
	ActionFlagged NormalizationAction = "flagged"
)

// NormalizationLogEntry records one drop, merge, or flag decision. The
// engine never discards data silently.
type NormalizationLogEntry struct {
	Action NormalizationAction `json:"action"`
	Source Source              `json:"source"`
	Entity string              `json:"entity,omitempty"`
	Date   time.Time           `json:"date,omitempty"`
	Amount float64             `json:"amount,omitempty"`
	Reason string              `json:"reason"`
}

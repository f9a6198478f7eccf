package model

import "time"

// Status is the PASS/WARN/ALERT traffic light used by individual rules
// and by the overall report.
type Status string

const (
	StatusPass  Status = "PASS"
	StatusWarn  Status = "WARN"
	StatusAlert Status = "ALERT"
)

// Outcome marks whether a pipeline run produced a numeric score.
type Outcome string

const (
	OutcomeComputed      Outcome = "computed"
	OutcomeNotComputable Outcome = "not_computable"
)

// Rule names, used as keys in TrustReport.Rules.
const (
	RuleRevenueIntegrity   = "revenue_integrity"
	RuleCashFlow           = "cash_flow"
	RuleTaxCompliance      = "tax_compliance"
	RulePayrollConsistency = "payroll_consistency"
	RuleAuditReadiness     = "audit_readiness"
)

// RuleNames lists the five validation rules in presentation order.
var RuleNames = []string{
	RuleRevenueIntegrity,
	RuleCashFlow,
	RuleTaxCompliance,
	RulePayrollConsistency,
	RuleAuditReadiness,
}

// SourceIngestion is the per-source slice of an IngestionReport.
type SourceIngestion struct {
	Source    Source    `json:"source"`
	Received  int       `json:"received"`
	Valid     int       `json:"valid"`
	Dropped   int       `json:"dropped"`
	Connected bool      `json:"connected"`
	Newest    time.Time `json:"newest,omitempty"`
}

// IngestionReport summarizes what the gateway accepted. A source with
// zero valid records is disconnected; SourcesConnected never exceeds 4.
type IngestionReport struct {
	Sources          map[Source]*SourceIngestion `json:"sources"`
	SourcesConnected int                         `json:"sources_connected"`
	TotalReceived    int                         `json:"total_received"`
	TotalDropped     int                         `json:"total_dropped"`
	Freshness        time.Duration               `json:"freshness"` // age of the newest record
	HistoryMonths    int                         `json:"history_months"`
	IngestedAt       time.Time                   `json:"ingested_at"`
}

// ConnectivityRatio returns connected sources over the four expected
// categories, in [0,1].
func (r *IngestionReport) ConnectivityRatio() float64 {
	return float64(r.SourcesConnected) / float64(len(AllSources))
}

// RuleResult is the immutable outcome of one validation rule for one
// pipeline run.
type RuleResult struct {
	Rule              string  `json:"rule"`
	Score             float64 `json:"score"` // [0,100]
	Status            Status  `json:"status"`
	Rationale         string  `json:"rationale"`
	Weight            float64 `json:"weight"`
	ReducedConfidence bool    `json:"reduced_confidence,omitempty"`
}

// TrustReport is the terminal artifact of a pipeline run.
type TrustReport struct {
	ID         string                `json:"id,omitempty"`
	Entity     string                `json:"entity"`
	Outcome    Outcome               `json:"outcome"`
	FTS        float64               `json:"fts"`
	Confidence float64               `json:"confidence"`
	Status     Status                `json:"status,omitempty"`
	Rationale  string                `json:"rationale,omitempty"`
	Rules      map[string]RuleResult `json:"rules,omitempty"`
	Ingestion  *IngestionReport      `json:"ingestion,omitempty"`
	Coverage   float64               `json:"coverage"`
	Alerts     int                   `json:"alerts"`
	Warnings   int                   `json:"warnings"`
	ComputedAt time.Time             `json:"computed_at"`
}

// Computable reports whether the run produced a numeric FTS.
func (r *TrustReport) Computable() bool {
	return r.Outcome == OutcomeComputed
}

// Package store persists trust reports for history queries. The
// pipeline itself never touches storage; callers save what they want
// to keep.
package store

import (
	"context"

	"github.com/rtfti/ftscore/internal/model"
)

// ReportFilter specifies criteria for listing reports.
type ReportFilter struct {
	Entity  string        `json:"entity,omitempty"`
	Status  model.Status  `json:"status,omitempty"`
	Outcome model.Outcome `json:"outcome,omitempty"`
	Limit   int           `json:"limit,omitempty"`
	Offset  int           `json:"offset,omitempty"`
}

// Store defines the persistence interface for trust reports.
type Store interface {
	SaveReport(ctx context.Context, report *model.TrustReport) error
	GetReport(ctx context.Context, id string) (*model.TrustReport, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]model.TrustReport, error)

	Migrate(ctx context.Context) error
	Close() error
}

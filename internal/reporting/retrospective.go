// Package reporting summarizes finished payment attempts.
package reporting

import (
	"time"

	"github.com/shopspring/decimal"
)

// AttemptRecord is one finished payment attempt.
type AttemptRecord struct {
	Timestamp time.Time
	AttemptID string
	OrderID   string
	Kind      string // "checkout", "recurring" or "preapproval"
	Outcome   string // "completed", "failed" or "dismissed"
	Message   string // failure message, if any
	Amount    *decimal.Decimal
	Currency  string
	SDK       string
	Duration  time.Duration
}

// RetrospectiveReport summarizes a set of attempt records.
type RetrospectiveReport struct {
	TotalAttempts      int                        `json:"total_attempts"`
	Completed          int                        `json:"completed"`
	Failed             int                        `json:"failed"`
	Dismissed          int                        `json:"dismissed"`
	AttemptsByKind     map[string]int             `json:"attempts_by_kind"`
	FailureBreakdown   map[string]int             `json:"failure_breakdown"`
	AmountByCurrency   map[string]decimal.Decimal `json:"amount_by_currency"` // completed attempts only
	SDKUsage           map[string]int             `json:"sdk_usage"`
	AverageDuration    time.Duration              `json:"average_duration_ns"`
	DateFrom           time.Time                  `json:"date_from"`
	DateTo             time.Time                  `json:"date_to"`
	ProcessingDuration time.Duration              `json:"processing_duration_ns"`
}

func newReport() *RetrospectiveReport {
	return &RetrospectiveReport{
		AttemptsByKind:   make(map[string]int),
		FailureBreakdown: make(map[string]int),
		AmountByCurrency: make(map[string]decimal.Decimal),
		SDKUsage:         make(map[string]int),
	}
}

// RetrospectiveReporter generates retrospective reports from attempt records.
type RetrospectiveReporter struct{}

func NewRetrospectiveReporter() *RetrospectiveReporter {
	return &RetrospectiveReporter{}
}

// GenerateRetrospective analyzes records and produces a RetrospectiveReport.
func (rr *RetrospectiveReporter) GenerateRetrospective(records []AttemptRecord) (*RetrospectiveReport, error) {
	report := newReport()
	if len(records) == 0 {
		return report, nil
	}

	report.DateFrom = records[0].Timestamp
	report.DateTo = records[0].Timestamp
	var totalDuration time.Duration

	for _, rec := range records {
		report.TotalAttempts++
		totalDuration += rec.Duration

		if rec.Timestamp.Before(report.DateFrom) {
			report.DateFrom = rec.Timestamp
		}
		if rec.Timestamp.After(report.DateTo) {
			report.DateTo = rec.Timestamp
		}
		if rec.Kind != "" {
			report.AttemptsByKind[rec.Kind]++
		}
		if rec.SDK != "" {
			report.SDKUsage[rec.SDK]++
		}

		switch rec.Outcome {
		case "completed":
			report.Completed++
			if rec.Amount != nil {
				report.AmountByCurrency[rec.Currency] = report.AmountByCurrency[rec.Currency].Add(*rec.Amount)
			}
		case "failed":
			report.Failed++
			if rec.Message != "" {
				report.FailureBreakdown[rec.Message]++
			}
		case "dismissed":
			report.Dismissed++
		}
	}

	report.AverageDuration = totalDuration / time.Duration(report.TotalAttempts)
	report.ProcessingDuration = report.DateTo.Sub(report.DateFrom)
	return report, nil
}

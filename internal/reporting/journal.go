package reporting

import (
	"context"
	"sync"

	"github.com/yourorg/payment-bridge/internal/bridge"
)

const defaultJournalSize = 1000

// Journal keeps the most recent finished attempts in memory. It implements
// bridge.Observer.
type Journal struct {
	mu      sync.Mutex
	size    int
	records []AttemptRecord
}

// NewJournal creates a Journal holding at most size records (1000 when size <= 0).
func NewJournal(size int) *Journal {
	if size <= 0 {
		size = defaultJournalSize
	}
	return &Journal{size: size}
}

// AttemptFinished records s, evicting the oldest record when full.
func (j *Journal) AttemptFinished(_ context.Context, s bridge.Summary) {
	rec := AttemptRecord{
		Timestamp: s.StartedAt.Add(s.Duration),
		AttemptID: s.AttemptID,
		OrderID:   s.OrderID,
		Kind:      s.Kind.String(),
		Outcome:   s.Outcome.Kind.String(),
		Message:   s.Outcome.Message,
		Amount:    s.Amount,
		Currency:  string(s.Currency),
		SDK:       s.SDK,
		Duration:  s.Duration,
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.records) == j.size {
		copy(j.records, j.records[1:])
		j.records = j.records[:len(j.records)-1]
	}
	j.records = append(j.records, rec)
}

// Records returns a copy of the journal, oldest first.
func (j *Journal) Records() []AttemptRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]AttemptRecord, len(j.records))
	copy(out, j.records)
	return out
}

package session

import (
	"sync"

	"live-service/internal/models"
)

// Ledger is the append-only list of graded answers for one session. It is
// created together with the session and dropped with it.
type Ledger struct {
	mu      sync.Mutex
	records []models.AnswerRecord
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Append(record models.AnswerRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record)
}

func (l *Ledger) Snapshot() []models.AnswerRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.AnswerRecord, len(l.records))
	copy(out, l.records)
	return out
}

// DistinctAnswered counts how many different participants have an entry for
// the given question index.
func (l *Ledger) DistinctAnswered(questionIndex int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := make(map[string]struct{})
	for _, r := range l.records {
		if r.QuestionIndex == questionIndex {
			seen[r.ParticipantID] = struct{}{}
		}
	}
	return len(seen)
}

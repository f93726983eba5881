// Package optimization provides shared data structures for optimization results.
package optimization

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary captures the result of a single target payoff date search.
type Summary struct {
	Strategy         string          `json:"strategy"`
	Field            string          `json:"field"`
	Target           time.Time       `json:"target"`
	MaxBudget        decimal.Decimal `json:"maxBudget"`
	Value            decimal.Decimal `json:"value"`
	PayoffDate       *time.Time      `json:"payoffDate,omitempty"`
	TotalInterest    decimal.Decimal `json:"totalInterest"`
	Iterations       int             `json:"iterations"`
	Converged        bool            `json:"converged"`
	Notes            []string        `json:"notes,omitempty"`
	ValueDisplay     string          `json:"valueDisplay,omitempty"`
	MaxBudgetDisplay string          `json:"maxBudgetDisplay,omitempty"`
}

// AddNote appends a human readable note to the summary.
func (s *Summary) AddNote(note string) {
	if note == "" {
		return
	}
	s.Notes = append(s.Notes, note)
}


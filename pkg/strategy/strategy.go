// Package strategy orders open debts for the allocation of extra payment
// capacity.
package strategy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iwvelando/payoff-planner/pkg/debt"
)

// Strategy names accepted by Parse.
const (
	NameSnowball  = "snowball"
	NameAvalanche = "avalanche"
	NameCustom    = "custom"
)

// ErrUnknownStrategy is returned by Parse for unrecognized names.
var ErrUnknownStrategy = errors.New("unknown allocation strategy")

// Strategy orders debts from highest to lowest payoff priority. Debts with no
// remaining principal are excluded from the ordering.
type Strategy interface {
	Name() string
	OrderDebts(balances []debt.Balance) []string
}

// Snowball pays the smallest balance first.
type Snowball struct{}

// Name implements Strategy.
func (Snowball) Name() string { return NameSnowball }

// OrderDebts sorts by ascending principal, then ascending rate, then id.
func (Snowball) OrderDebts(balances []debt.Balance) []string {
	return order(balances, func(a, b debt.Balance) bool {
		if c := a.PrincipalRemaining.Cmp(b.PrincipalRemaining); c != 0 {
			return c < 0
		}
		if c := a.AnnualInterestRatePercent.Cmp(b.AnnualInterestRatePercent); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

// Avalanche pays the highest interest rate first.
type Avalanche struct{}

// Name implements Strategy.
func (Avalanche) Name() string { return NameAvalanche }

// OrderDebts sorts by descending rate, then descending principal, then id.
func (Avalanche) OrderDebts(balances []debt.Balance) []string {
	return order(balances, func(a, b debt.Balance) bool {
		if c := a.AnnualInterestRatePercent.Cmp(b.AnnualInterestRatePercent); c != 0 {
			return c > 0
		}
		if c := a.PrincipalRemaining.Cmp(b.PrincipalRemaining); c != 0 {
			return c > 0
		}
		return a.ID < b.ID
	})
}

// Custom pays debts in ascending PriorityRank. Unranked debts come last in
// id order.
type Custom struct{}

// Name implements Strategy.
func (Custom) Name() string { return NameCustom }

// OrderDebts sorts by ascending rank with unranked debts last, then id.
func (Custom) OrderDebts(balances []debt.Balance) []string {
	return order(balances, func(a, b debt.Balance) bool {
		switch {
		case a.PriorityRank != nil && b.PriorityRank != nil:
			if *a.PriorityRank != *b.PriorityRank {
				return *a.PriorityRank < *b.PriorityRank
			}
		case a.PriorityRank != nil:
			return true
		case b.PriorityRank != nil:
			return false
		}
		return a.ID < b.ID
	})
}

func order(balances []debt.Balance, less func(a, b debt.Balance) bool) []string {
	open := make([]debt.Balance, 0, len(balances))
	for _, b := range balances {
		if b.PrincipalRemaining.IsPositive() {
			open = append(open, b)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		return less(open[i], open[j])
	})

	ids := make([]string, len(open))
	for i, b := range open {
		ids[i] = b.ID
	}
	return ids
}

// Parse returns the built-in strategy with the given name, ignoring case.
func Parse(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameSnowball:
		return Snowball{}, nil
	case NameAvalanche:
		return Avalanche{}, nil
	case NameCustom:
		return Custom{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// All returns every built-in strategy in a stable order.
func All() []Strategy {
	return []Strategy{Snowball{}, Avalanche{}, Custom{}}
}

// Names returns the names of the built-in strategies.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.Name()
	}
	return names
}

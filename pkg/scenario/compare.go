package scenario

import (
	"context"
	"fmt"

	"github.com/iwvelando/payoff-planner/pkg/debt"
	"github.com/iwvelando/payoff-planner/pkg/strategy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Compare simulates the same debts under each strategy concurrently and
// returns the scenarios in the order of strategies. An empty strategy list
// compares every built-in strategy.
func (e *Engine) Compare(ctx context.Context, balances []debt.Balance, strategies []strategy.Strategy,
	extraPayment decimal.Decimal) ([]debt.PayoffScenario, error) {
	if len(strategies) == 0 {
		strategies = strategy.All()
	}

	results := make([]debt.PayoffScenario, len(strategies))
	g, ctx := errgroup.WithContext(ctx)
	for i, strat := range strategies {
		i, strat := i, strat
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			scenario, err := e.Simulate(balances, strat, extraPayment)
			if err != nil {
				name := "<nil>"
				if strat != nil {
					name = strat.Name()
				}
				return fmt.Errorf("strategy %s: %w", name, err)
			}
			results[i] = scenario
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug("compared strategies",
		zap.String("op", "scenario.Compare"),
		zap.Int("strategies", len(strategies)),
	)
	return results, nil
}

// Cheapest returns the index of the scenario with the least total interest
// among complete scenarios, preferring the earlier payoff on ties. It returns
// -1 when no scenario is complete.
func Cheapest(scenarios []debt.PayoffScenario) int {
	best := -1
	for i, s := range scenarios {
		if !s.Complete {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		current := scenarios[best]
		switch c := s.TotalInterestPaidAllDebts.Cmp(current.TotalInterestPaidAllDebts); {
		case c < 0:
			best = i
		case c == 0 && s.TotalMonths < current.TotalMonths:
			best = i
		}
	}
	return best
}

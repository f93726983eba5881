// Package planner orchestrates payoff calculations for the CLI and HTTP
// server: it resolves stored balances, runs the engine, and caches results.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/payoff-planner/internal/store"
	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/iwvelando/payoff-planner/pkg/datetime"
	"github.com/iwvelando/payoff-planner/pkg/debt"
	"github.com/iwvelando/payoff-planner/pkg/optimization"
	"github.com/iwvelando/payoff-planner/pkg/payoff"
	"github.com/iwvelando/payoff-planner/pkg/scenario"
	"github.com/iwvelando/payoff-planner/pkg/strategy"
	"github.com/iwvelando/payoff-planner/pkg/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Request describes a multi-debt plan. Balances are taken from DebtIDs in the
// repository followed by any inline Balances.
type Request struct {
	DebtIDs          []string        `json:"debtIds,omitempty"`
	Balances         []debt.Balance  `json:"balances,omitempty"`
	Strategy         string          `json:"strategy,omitempty"`
	Strategies       []string        `json:"strategies,omitempty"`
	ExtraPayment     decimal.Decimal `json:"extraPayment"`
	TargetPayoffDate string          `json:"targetPayoffDate,omitempty"`
	MaxSearchBudget  decimal.Decimal `json:"maxSearchBudget"`
}

// Result is the outcome of Plan.
type Result struct {
	Scenario debt.PayoffScenario   `json:"scenario"`
	Search   *optimization.Summary `json:"search,omitempty"`
	Warnings []string              `json:"warnings,omitempty"`
	Cached   bool                  `json:"cached"`
}

// Comparison is the outcome of Compare.
type Comparison struct {
	Scenarios []debt.PayoffScenario `json:"scenarios"`
	Cheapest  string                `json:"cheapest,omitempty"`
}

// DebtRequest names a single balance, either stored or inline.
type DebtRequest struct {
	DebtID  string        `json:"debtId,omitempty"`
	Balance *debt.Balance `json:"balance,omitempty"`
}

// Service runs payoff calculations against a balance repository.
type Service struct {
	logger    *zap.Logger
	repo      store.BalanceRepository
	cache     store.Cache
	cacheTTL  time.Duration
	options   scenario.Options
	engine    *scenario.Engine
	projector *payoff.Projector
}

// NewService creates a Service. A nil cache disables result caching.
func NewService(logger *zap.Logger, repo store.BalanceRepository, cache store.Cache, opts scenario.Options,
	cacheTTL time.Duration) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if repo == nil {
		return nil, fmt.Errorf("balance repository cannot be nil")
	}
	engine, err := scenario.NewEngine(logger, opts)
	if err != nil {
		return nil, err
	}
	return &Service{
		logger:    logger,
		repo:      repo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		options:   opts,
		engine:    engine,
		projector: payoff.NewProjector(logger, engine.Calculator(), engine.MaxPeriods()),
	}, nil
}

// Plan simulates the requested debts under one strategy, or searches for the
// smallest extra payment meeting TargetPayoffDate when one is given. When the
// target is unreachable the max-budget result is returned with the error.
func (s *Service) Plan(ctx context.Context, req Request) (Result, error) {
	balances, err := s.resolveBalances(ctx, req.DebtIDs, req.Balances)
	if err != nil {
		return Result{}, err
	}
	strat, err := parseStrategy(req.Strategy)
	if err != nil {
		return Result{}, err
	}
	var target time.Time
	if strings.TrimSpace(req.TargetPayoffDate) != "" {
		target, err = datetime.ParseMonth(req.TargetPayoffDate)
		if err != nil {
			return Result{}, &debt.InvalidPaymentError{Reason: fmt.Sprintf("invalid target payoff date %q, expected %s",
				req.TargetPayoffDate, constants.DateTimeLayout)}
		}
	}

	key, keyErr := s.cacheKey("plan", balances, strat.Name(), req.ExtraPayment.String(),
		req.TargetPayoffDate, req.MaxSearchBudget.String())
	if keyErr == nil {
		var cached Result
		if s.lookup(ctx, key, &cached) {
			cached.Cached = true
			return cached, nil
		}
	}

	var result Result
	if target.IsZero() {
		result.Scenario, err = s.engine.Simulate(balances, strat, req.ExtraPayment)
	} else {
		var summary optimization.Summary
		result.Scenario, summary, err = s.engine.SolveForTarget(balances, strat, target, req.MaxSearchBudget)
		result.Search = &summary
	}
	if err != nil {
		s.logger.Info("payoff plan rejected",
			zap.String("op", "planner.Plan"),
			zap.String("strategy", strat.Name()),
			zap.Error(err),
		)
		var unreachable *debt.TargetUnreachableError
		if errors.As(err, &unreachable) {
			return result, err
		}
		return Result{}, err
	}
	result.Warnings = s.warnings(balances, strat.Name(), target, req.MaxSearchBudget)

	s.logger.Info("planned payoff scenario",
		zap.String("op", "planner.Plan"),
		zap.String("scenario", result.Scenario.ID),
		zap.String("strategy", strat.Name()),
		zap.Int("debts", len(balances)),
		zap.Int("periods", result.Scenario.TotalMonths),
		zap.Bool("complete", result.Scenario.Complete),
	)

	if keyErr == nil {
		s.store(ctx, key, result)
	}
	return result, nil
}

// Compare simulates the requested debts under several strategies.
func (s *Service) Compare(ctx context.Context, req Request) (Comparison, error) {
	balances, err := s.resolveBalances(ctx, req.DebtIDs, req.Balances)
	if err != nil {
		return Comparison{}, err
	}

	var strategies []strategy.Strategy
	for _, name := range req.Strategies {
		strat, err := strategy.Parse(name)
		if err != nil {
			return Comparison{}, err
		}
		strategies = append(strategies, strat)
	}

	scenarios, err := s.engine.Compare(ctx, balances, strategies, req.ExtraPayment)
	if err != nil {
		return Comparison{}, err
	}

	comparison := Comparison{Scenarios: scenarios}
	if best := scenario.Cheapest(scenarios); best >= 0 {
		comparison.Cheapest = scenarios[best].StrategyUsed
	}

	s.logger.Info("compared payoff strategies",
		zap.String("op", "planner.Compare"),
		zap.Int("strategies", len(scenarios)),
		zap.String("cheapest", comparison.Cheapest),
	)
	return comparison, nil
}

// Project amortizes one balance at a fixed payment per period.
func (s *Service) Project(ctx context.Context, req DebtRequest, payment decimal.Decimal) (debt.PayoffProjection, error) {
	balance, err := s.resolveOne(ctx, req)
	if err != nil {
		return debt.PayoffProjection{}, err
	}
	return s.projector.Project(balance, payment)
}

// Savings compares one balance with and without an extra payment.
func (s *Service) Savings(ctx context.Context, req DebtRequest, baseline, extra decimal.Decimal) (payoff.Comparison, error) {
	balance, err := s.resolveOne(ctx, req)
	if err != nil {
		return payoff.Comparison{}, err
	}
	return s.projector.CompareExtraPayment(balance, baseline, extra)
}

// MinimumPayment returns the smallest workable payment for one balance.
func (s *Service) MinimumPayment(ctx context.Context, req DebtRequest) (decimal.Decimal, error) {
	balance, err := s.resolveOne(ctx, req)
	if err != nil {
		return decimal.Zero, err
	}
	return s.projector.CalculateMinimumPayment(balance)
}

// SaveBalance stores a balance snapshot.
func (s *Service) SaveBalance(ctx context.Context, balance debt.Balance) error {
	if err := s.repo.Save(ctx, balance); err != nil {
		return err
	}
	s.logger.Debug("saved balance",
		zap.String("op", "planner.SaveBalance"),
		zap.String("debt", balance.ID),
	)
	return nil
}

// ListBalances returns every stored balance.
func (s *Service) ListBalances(ctx context.Context) ([]debt.Balance, error) {
	return s.repo.List(ctx)
}

func (s *Service) resolveBalances(ctx context.Context, ids []string, inline []debt.Balance) ([]debt.Balance, error) {
	var balances []debt.Balance
	if len(ids) > 0 {
		stored, err := s.repo.LoadMany(ctx, ids)
		if err != nil {
			return nil, err
		}
		balances = append(balances, stored...)
	}
	balances = append(balances, inline...)
	if len(balances) == 0 {
		return nil, &debt.InvalidPaymentError{Reason: "no balances supplied"}
	}
	return balances, nil
}

func (s *Service) resolveOne(ctx context.Context, req DebtRequest) (debt.Balance, error) {
	switch {
	case req.Balance != nil:
		return *req.Balance, nil
	case req.DebtID != "":
		return s.repo.Load(ctx, req.DebtID)
	default:
		return debt.Balance{}, &debt.InvalidPaymentError{Reason: "a debt id or balance is required"}
	}
}

func (s *Service) warnings(balances []debt.Balance, strategyName string, target time.Time, budget decimal.Decimal) []string {
	validator := validation.PlanValidator{
		Balances:        balances,
		Strategy:        strategyName,
		PeriodsPerYear:  s.engine.Calculator().Frequency().PeriodsPerYear(),
		StartDate:       s.options.StartDate,
		MaxSearchBudget: budget,
	}
	if !target.IsZero() {
		validator.TargetPayoffDate = &target
	}
	return validator.ValidateAll()
}

func (s *Service) cacheKey(kind string, balances []debt.Balance, parts ...string) (string, error) {
	if s.cache == nil {
		return "", errors.New("cache disabled")
	}
	fingerprint, err := json.Marshal(balances)
	if err != nil {
		return "", err
	}
	options := fmt.Sprintf("%s|%s|%d|%s", s.options.Frequency, s.options.StartDate.Format(constants.DateTimeLayout),
		s.engine.MaxPeriods(), s.options.Rounding)
	return store.CacheKey(append([]string{kind, string(fingerprint), options}, parts...)...), nil
}

func (s *Service) lookup(ctx context.Context, key string, out interface{}) bool {
	data, ok := s.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn("discarding unreadable cache entry",
			zap.String("op", "planner.lookup"),
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (s *Service) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err == nil {
		err = s.cache.Set(ctx, key, data, s.cacheTTL)
	}
	if err != nil {
		s.logger.Warn("failed to cache result",
			zap.String("op", "planner.store"),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func parseStrategy(name string) (strategy.Strategy, error) {
	if strings.TrimSpace(name) == "" {
		return strategy.Avalanche{}, nil
	}
	return strategy.Parse(name)
}

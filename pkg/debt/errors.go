package debt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/shopspring/decimal"
)

// Calculation errors. Each typed error below unwraps to one of these so
// callers can match with errors.Is.
var (
	// ErrInvalidPayment is returned for non-positive payments or invalid balances.
	ErrInvalidPayment = errors.New("invalid payment")

	// ErrNonAmortizingPayment is returned when a payment does not exceed the
	// interest accrued in a period.
	ErrNonAmortizingPayment = errors.New("payment does not cover periodic interest")

	// ErrUnaffordableDebt is returned when no payment retires a balance within
	// the period ceiling.
	ErrUnaffordableDebt = errors.New("debt cannot be retired within the period ceiling")

	// ErrTargetUnreachable is returned when a target payoff date cannot be met
	// within the search budget.
	ErrTargetUnreachable = errors.New("target payoff date unreachable")
)

// InvalidPaymentError describes input that must be corrected by the caller.
type InvalidPaymentError struct {
	DebtIDs []string
	Reason  string
}

func (e *InvalidPaymentError) Error() string {
	if len(e.DebtIDs) == 0 {
		return fmt.Sprintf("%v: %s", ErrInvalidPayment, e.Reason)
	}
	return fmt.Sprintf("%v for %s: %s", ErrInvalidPayment, strings.Join(e.DebtIDs, ", "), e.Reason)
}

func (e *InvalidPaymentError) Unwrap() error {
	return ErrInvalidPayment
}

// NonAmortizingPaymentError lists debts whose payment never reduces principal.
// Payment and Interest describe the first offending debt.
type NonAmortizingPaymentError struct {
	DebtIDs  []string
	Payment  decimal.Decimal
	Interest decimal.Decimal
}

func (e *NonAmortizingPaymentError) Error() string {
	ids := strings.Join(e.DebtIDs, ", ")
	if ids == "" {
		ids = "balance"
	}
	return fmt.Sprintf("%v for %s (payment %s, interest %s)",
		ErrNonAmortizingPayment, ids, e.Payment.StringFixed(constants.CurrencyPlaces),
		e.Interest.StringFixed(constants.CurrencyPlaces))
}

func (e *NonAmortizingPaymentError) Unwrap() error {
	return ErrNonAmortizingPayment
}

// UnaffordableDebtError reports the interest-only threshold and the smallest
// payment that would retire the balance within MaxPeriods.
type UnaffordableDebtError struct {
	DebtID          string
	MinimumPayment  decimal.Decimal
	InterestOnly    decimal.Decimal
	RequiredPayment decimal.Decimal
	MaxPeriods      int
}

func (e *UnaffordableDebtError) Error() string {
	msg := fmt.Sprintf("%v: debt %s minimum payment %s does not exceed interest-only threshold %s",
		ErrUnaffordableDebt, e.DebtID, e.MinimumPayment.StringFixed(constants.CurrencyPlaces),
		e.InterestOnly.StringFixed(constants.CurrencyPlaces))
	if e.RequiredPayment.IsPositive() {
		msg += fmt.Sprintf("; increase payment to at least %s or extend the horizon beyond %d periods",
			e.RequiredPayment.StringFixed(constants.CurrencyPlaces), e.MaxPeriods)
	}
	return msg
}

func (e *UnaffordableDebtError) Unwrap() error {
	return ErrUnaffordableDebt
}

// TargetUnreachableError carries the best payoff date achievable with the
// maximum search budget. BestPayoffDate is nil when even that budget leaves
// debts open at the period ceiling.
type TargetUnreachableError struct {
	Target         time.Time
	BestPayoffDate *time.Time
	MaxBudget      decimal.Decimal
}

func (e *TargetUnreachableError) Error() string {
	best := "never"
	if e.BestPayoffDate != nil {
		best = e.BestPayoffDate.Format(constants.DateTimeLayout)
	}
	return fmt.Sprintf("%v: %s not met with extra payment %s (best achievable %s)",
		ErrTargetUnreachable, e.Target.Format(constants.DateTimeLayout),
		e.MaxBudget.StringFixed(constants.CurrencyPlaces), best)
}

func (e *TargetUnreachableError) Unwrap() error {
	return ErrTargetUnreachable
}

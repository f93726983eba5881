package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/payoff-planner/pkg/debt"
	"github.com/shopspring/decimal"
)

// DebtConfig describes one debt in the configuration file.
type DebtConfig struct {
	ID             string          `yaml:"id" mapstructure:"id"`
	Name           string          `yaml:"name,omitempty" mapstructure:"name"`
	Principal      decimal.Decimal `yaml:"principal" mapstructure:"principal"`
	InterestRate   decimal.Decimal `yaml:"interestRate" mapstructure:"interestRate"`
	MinimumPayment decimal.Decimal `yaml:"minimumPayment" mapstructure:"minimumPayment"`
	Priority       *int            `yaml:"priority,omitempty" mapstructure:"priority"`
}

// ToBalance converts the configured debt to an engine balance. An empty id
// falls back to the lower-cased name with spaces replaced by dashes.
func (d DebtConfig) ToBalance() (debt.Balance, error) {
	id := strings.TrimSpace(d.ID)
	if id == "" {
		id = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(d.Name)), " ", "-")
	}
	if id == "" {
		return debt.Balance{}, fmt.Errorf("debt requires an id or name")
	}

	b := debt.Balance{
		ID:                        id,
		Name:                      d.Name,
		PrincipalRemaining:        d.Principal,
		AnnualInterestRatePercent: d.InterestRate,
		MinimumPayment:            d.MinimumPayment,
	}
	if d.Priority != nil {
		rank := *d.Priority
		b.PriorityRank = &rank
	}
	if err := b.Validate(); err != nil {
		return debt.Balance{}, err
	}
	return b, nil
}

// FromBalance converts an engine balance back into its configuration form.
func FromBalance(b debt.Balance) DebtConfig {
	d := DebtConfig{
		ID:             b.ID,
		Name:           b.Name,
		Principal:      b.PrincipalRemaining,
		InterestRate:   b.AnnualInterestRatePercent,
		MinimumPayment: b.MinimumPayment,
	}
	if b.PriorityRank != nil {
		rank := *b.PriorityRank
		d.Priority = &rank
	}
	return d
}

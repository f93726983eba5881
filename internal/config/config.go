// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/payoff-planner/internal/store"
	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/iwvelando/payoff-planner/pkg/datetime"
	"github.com/iwvelando/payoff-planner/pkg/debt"
	"github.com/iwvelando/payoff-planner/pkg/mathutil"
	"github.com/iwvelando/payoff-planner/pkg/scenario"
	"github.com/iwvelando/payoff-planner/pkg/strategy"
	"github.com/iwvelando/payoff-planner/pkg/validation"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// DateTimeLayout is the format expected in config files and is also the output
// date format.
const DateTimeLayout = constants.DateTimeLayout

// Configuration holds all configuration for payoff-planner.
type Configuration struct {
	Logging LoggingConfig `yaml:"logging,omitempty" mapstructure:"logging"`
	Output  OutputConfig  `yaml:"output,omitempty" mapstructure:"output"`
	Plan    PlanConfig    `yaml:"plan" mapstructure:"plan"`
	Debts   []DebtConfig  `yaml:"debts" mapstructure:"debts"`
	Store   StoreConfig   `yaml:"store,omitempty" mapstructure:"store"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format       string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv
	ShowSchedule bool   `yaml:"showSchedule,omitempty" mapstructure:"showSchedule"`
}

// PlanConfig holds the parameters of a payoff plan.
type PlanConfig struct {
	StartDate        time.Time       `yaml:"startDate,omitempty" mapstructure:"startDate"`
	Strategy         string          `yaml:"strategy,omitempty" mapstructure:"strategy"`
	ExtraPayment     decimal.Decimal `yaml:"extraPayment,omitempty" mapstructure:"extraPayment"`
	Frequency        string          `yaml:"frequency,omitempty" mapstructure:"frequency"`
	TargetPayoffDate time.Time       `yaml:"targetPayoffDate,omitempty" mapstructure:"targetPayoffDate"`
	MaxSearchBudget  decimal.Decimal `yaml:"maxSearchBudget,omitempty" mapstructure:"maxSearchBudget"`
	MaxPeriods       int             `yaml:"maxPeriods,omitempty" mapstructure:"maxPeriods"`
	Rounding         string          `yaml:"rounding,omitempty" mapstructure:"rounding"`
}

// StoreConfig selects the balance repository and result cache.
type StoreConfig struct {
	Backend  string        `yaml:"backend,omitempty" mapstructure:"backend"` // memory, redis
	Address  string        `yaml:"address,omitempty" mapstructure:"address"`
	Password string        `yaml:"password,omitempty" mapstructure:"password"`
	DB       int           `yaml:"db,omitempty" mapstructure:"db"`
	TTL      time.Duration `yaml:"ttl,omitempty" mapstructure:"ttl"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// Balances converts the configured debts into engine balances.
func (c *Configuration) Balances() ([]debt.Balance, error) {
	balances := make([]debt.Balance, 0, len(c.Debts))
	for i, d := range c.Debts {
		b, err := d.ToBalance()
		if err != nil {
			return nil, fmt.Errorf("debt %d: %w", i+1, err)
		}
		balances = append(balances, b)
	}
	return balances, nil
}

// Strategy returns the configured allocation strategy, avalanche when unset.
func (c *Configuration) Strategy() (strategy.Strategy, error) {
	if strings.TrimSpace(c.Plan.Strategy) == "" {
		return strategy.Avalanche{}, nil
	}
	return strategy.Parse(c.Plan.Strategy)
}

// EngineOptions returns scenario options for the plan. An unset start date
// falls back to the month containing now.
func (c *Configuration) EngineOptions(now time.Time) (scenario.Options, error) {
	frequency, err := debt.ParseFrequency(c.Plan.Frequency)
	if err != nil {
		return scenario.Options{}, err
	}
	if _, err := mathutil.RounderFor(c.Plan.Rounding); err != nil {
		return scenario.Options{}, err
	}
	if c.Plan.MaxPeriods < 0 {
		return scenario.Options{}, fmt.Errorf("maxPeriods must not be negative, got %d", c.Plan.MaxPeriods)
	}

	start := c.Plan.StartDate
	if start.IsZero() {
		start = datetime.MonthStart(now)
	}
	return scenario.Options{
		Frequency:  frequency,
		StartDate:  start,
		MaxPeriods: c.Plan.MaxPeriods,
		Rounding:   c.Plan.Rounding,
	}, nil
}

// HasTarget reports whether a target payoff date search is configured.
func (c *Configuration) HasTarget() bool {
	return !c.Plan.TargetPayoffDate.IsZero()
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	balances, err := c.Balances()
	if err != nil {
		return append(warnings, err.Error())
	}
	frequency, err := debt.ParseFrequency(c.Plan.Frequency)
	if err != nil {
		warnings = append(warnings, err.Error())
		frequency = debt.FrequencyMonthly
	}

	strategyName := strings.ToLower(strings.TrimSpace(c.Plan.Strategy))
	if strategyName == "" {
		strategyName = strategy.NameAvalanche
	}

	validator := validation.PlanValidator{
		Balances:        balances,
		Strategy:        strategyName,
		PeriodsPerYear:  frequency.PeriodsPerYear(),
		StartDate:       c.Plan.StartDate,
		MaxSearchBudget: c.Plan.MaxSearchBudget,
	}
	if c.HasTarget() {
		target := c.Plan.TargetPayoffDate
		validator.TargetPayoffDate = &target
	}
	warnings = append(warnings, validator.ValidateAll()...)

	if len(c.Debts) == 0 {
		warnings = append(warnings, "No debts configured")
	}
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			warnings = append(warnings, err.Error())
		}
	}
	if err := validation.ValidateStoreBackend(c.Store.Backend); err != nil {
		warnings = append(warnings, err.Error())
	}
	if c.Plan.ExtraPayment.IsNegative() {
		warnings = append(warnings, fmt.Sprintf("Extra payment %s is negative", c.Plan.ExtraPayment.StringFixed(constants.CurrencyPlaces)))
	}
	return warnings
}

// Options returns the options used to open the configured balance store.
func (s StoreConfig) Options() store.Options {
	return store.Options{
		Backend: s.Backend,
		Redis: store.RedisOptions{
			Address:  s.Address,
			Password: s.Password,
			DB:       s.DB,
		},
	}
}

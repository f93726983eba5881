package debt

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/payoff-planner/pkg/constants"
)

// Frequency is how often payments are made against a balance.
type Frequency string

const (
	// FrequencyMonthly pays once per calendar month.
	FrequencyMonthly Frequency = "monthly"
	// FrequencyBiweekly pays every fourteen days.
	FrequencyBiweekly Frequency = "biweekly"
	// FrequencyWeekly pays every seven days.
	FrequencyWeekly Frequency = "weekly"
)

// ParseFrequency returns the Frequency named by value. An empty value selects
// monthly payments.
func ParseFrequency(value string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(FrequencyMonthly):
		return FrequencyMonthly, nil
	case string(FrequencyBiweekly), "bi-weekly", "fortnightly":
		return FrequencyBiweekly, nil
	case string(FrequencyWeekly):
		return FrequencyWeekly, nil
	default:
		return "", fmt.Errorf("unsupported payment frequency %q", value)
	}
}

// PeriodsPerYear returns the number of payment periods in a year.
func (f Frequency) PeriodsPerYear() int {
	switch f {
	case FrequencyBiweekly:
		return constants.BiweeklyPeriodsPerYear
	case FrequencyWeekly:
		return constants.WeeklyPeriodsPerYear
	default:
		return constants.MonthsPerYear
	}
}

// DefaultMaxPeriods returns the period ceiling covering the default horizon.
func (f Frequency) DefaultMaxPeriods() int {
	return constants.HorizonYears * f.PeriodsPerYear()
}

// PeriodDate returns the date of the 1-based periodIndex when period 1 falls
// on start.
func (f Frequency) PeriodDate(start time.Time, periodIndex int) time.Time {
	offset := periodIndex - 1
	switch f {
	case FrequencyBiweekly:
		return start.AddDate(0, 0, 14*offset)
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7*offset)
	default:
		return start.AddDate(0, offset, 0)
	}
}

func (f Frequency) String() string {
	if f == "" {
		return string(FrequencyMonthly)
	}
	return string(f)
}

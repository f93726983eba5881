// Package constants provides shared constants for the payoff-planner application.
package constants

// DateTimeLayout is the format expected in config files and is also the output
// date format.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// BiweeklyPeriodsPerYear is the number of biweekly payments in a year
	BiweeklyPeriodsPerYear = 26

	// WeeklyPeriodsPerYear is the number of weekly payments in a year
	WeeklyPeriodsPerYear = 52

	// CurrencyPlaces is the number of fractional digits kept for money
	CurrencyPlaces = 2

	// ConfigNumberPlaces is the number of fractional digits kept for unquoted
	// numbers read from configuration files
	ConfigNumberPlaces = 6

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100
)

// Simulation limits
const (
	// HorizonYears is the default simulation horizon (100 years)
	HorizonYears = 100

	// DefaultMaxPeriods is the default monthly period ceiling
	DefaultMaxPeriods = HorizonYears * MonthsPerYear

	// MaxSearchIterations caps the target payoff date bisection
	MaxSearchIterations = 64
)

// Rounding modes
const (
	// RoundingHalfUp rounds half away from zero
	RoundingHalfUp = "half-up"

	// RoundingBankers rounds half to even
	RoundingBankers = "bankers"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024
)

// Store backends
const (
	// StoreBackendMemory keeps balances in process memory
	StoreBackendMemory = "memory"

	// StoreBackendRedis keeps balances in redis
	StoreBackendRedis = "redis"

	// DefaultRedisAddress is the default redis address
	DefaultRedisAddress = "localhost:6379"
)

package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iwvelando/payoff-planner/internal/config"
	"github.com/iwvelando/payoff-planner/internal/store"
	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/iwvelando/payoff-planner/pkg/datetime"
	"github.com/iwvelando/payoff-planner/pkg/debt"
	"github.com/iwvelando/payoff-planner/pkg/mathutil"
	"github.com/iwvelando/payoff-planner/pkg/scenario"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address     string               `yaml:"address"`
	MaxBodySize string               `yaml:"maxBodySize"`
	Logging     config.LoggingConfig `yaml:"logging"`
	Store       config.StoreConfig   `yaml:"store"`
	Engine      EngineConfig         `yaml:"engine"`
	bodySize    int64
}

// EngineConfig holds the calendar and arithmetic settings shared by every
// request served.
type EngineConfig struct {
	Frequency  string `yaml:"frequency"`
	StartDate  string `yaml:"startDate"`
	MaxPeriods int    `yaml:"maxPeriods"`
	Rounding   string `yaml:"rounding"`
}

// LoadConfig loads the server configuration from YAML. If the file does not exist,
// defaults are returned without error.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Address:     constants.DefaultServerAddress,
		MaxBodySize: fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes),
		Logging:     config.LoggingConfig{},
		bodySize:    constants.DefaultMaxBodySizeBytes,
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BodySizeBytes returns the configured request body limit in bytes.
func (c *Config) BodySizeBytes() int64 {
	return c.bodySize
}

// SetBodySizeBytes overrides the configured request body limit.
func (c *Config) SetBodySizeBytes(size int64) {
	if size > 0 {
		c.bodySize = size
		c.MaxBodySize = fmt.Sprintf("%d", size)
	}
}

// EngineOptions returns the scenario options for the server. An empty start
// date selects the month containing now.
func (c *Config) EngineOptions(now time.Time) (scenario.Options, error) {
	frequency, err := debt.ParseFrequency(c.Engine.Frequency)
	if err != nil {
		return scenario.Options{}, err
	}
	if _, err := mathutil.RounderFor(c.Engine.Rounding); err != nil {
		return scenario.Options{}, err
	}

	start := datetime.MonthStart(now)
	if value := strings.TrimSpace(c.Engine.StartDate); value != "" {
		start, err = datetime.ParseMonth(value)
		if err != nil {
			return scenario.Options{}, fmt.Errorf("invalid engine start date %q, expected %s: %w",
				value, constants.DateTimeLayout, err)
		}
	}
	return scenario.Options{
		Frequency:  frequency,
		StartDate:  start,
		MaxPeriods: c.Engine.MaxPeriods,
		Rounding:   c.Engine.Rounding,
	}, nil
}

// StoreOptions returns the options used to open the balance store.
func (c *Config) StoreOptions() store.Options {
	return c.Store.Options()
}

func (c *Config) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.Engine.MaxPeriods < 0 {
		return fmt.Errorf("engine maxPeriods must not be negative, got %d", c.Engine.MaxPeriods)
	}

	sizeStr := strings.TrimSpace(c.MaxBodySize)
	if sizeStr == "" {
		c.bodySize = constants.DefaultMaxBodySizeBytes
		c.MaxBodySize = fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes)
		return nil
	}

	bytes, err := ParseSize(sizeStr)
	if err != nil {
		return err
	}
	if bytes <= 0 {
		bytes = constants.DefaultMaxBodySizeBytes
	}
	c.bodySize = bytes
	return nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxBodySizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}

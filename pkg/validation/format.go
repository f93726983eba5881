// Package validation checks settings and plans before they reach the payoff
// engine.
package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/payoff-planner/pkg/constants"
)

// OutputFormats lists the formats the CLI can write.
var OutputFormats = []string{constants.OutputFormatPretty, constants.OutputFormatCSV}

// StoreBackends lists the balance store backends.
var StoreBackends = []string{constants.StoreBackendMemory, constants.StoreBackendRedis}

// ValidateOutputFormat checks that format names a supported output format.
// Matching is exact.
func ValidateOutputFormat(format string) error {
	return oneOf("output format", format, OutputFormats)
}

// ValidateStoreBackend checks that backend names a supported store. Names are
// case-insensitive and an empty name selects memory.
func ValidateStoreBackend(backend string) error {
	name := strings.ToLower(strings.TrimSpace(backend))
	if name == "" {
		return nil
	}
	return oneOf("store backend", name, StoreBackends)
}

func oneOf(kind, value string, allowed []string) error {
	for _, candidate := range allowed {
		if value == candidate {
			return nil
		}
	}
	return fmt.Errorf("expected %s of %s, got %q", kind, strings.Join(allowed, " or "), value)
}

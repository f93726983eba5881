package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/iwvelando/payoff-planner/pkg/datetime"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
)

var (
	decimalType = reflect.TypeOf(decimal.Decimal{})
	timeType    = reflect.TypeOf(time.Time{})
)

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		stringToDecimalHookFunc(),
		stringToMonthHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

// stringToDecimalHookFunc converts YAML numbers and strings such as
// "$1,250.00" into decimal.Decimal. Quoted amounts are parsed exactly; bare
// numbers arrive as floats and are rebuilt from their shortest decimal form.
func stringToDecimalHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != decimalType {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			cleaned := strings.NewReplacer("$", "", ",", "", "_", "").Replace(strings.TrimSpace(v))
			if cleaned == "" {
				return decimal.Zero, nil
			}
			value, err := decimal.NewFromString(cleaned)
			if err != nil {
				return nil, fmt.Errorf("invalid amount %q: %w", v, err)
			}
			return value, nil
		case int:
			return decimal.NewFromInt(int64(v)), nil
		case int64:
			return decimal.NewFromInt(v), nil
		case uint64:
			return decimal.NewFromInt(int64(v)), nil
		case float64:
			return floatLiteral(strconv.FormatFloat(v, 'f', -1, 64))
		case float32:
			return floatLiteral(strconv.FormatFloat(float64(v), 'f', -1, 32))
		case nil:
			return decimal.Zero, nil
		default:
			return data, nil
		}
	}
}

// floatLiteral parses the shortest round-trip form of a float, which is the
// literal written in the file for any value of up to 15 significant digits.
func floatLiteral(literal string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(literal)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %s: %w", literal, err)
	}
	return value.Round(constants.ConfigNumberPlaces), nil
}

// stringToMonthHookFunc converts YYYY-MM strings into the first day of that
// month.
func stringToMonthHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != timeType || f.Kind() != reflect.String {
			return data, nil
		}
		value := strings.TrimSpace(data.(string))
		if value == "" {
			return time.Time{}, nil
		}
		parsed, err := datetime.ParseMonth(value)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q, expected %s: %w", value, DateTimeLayout, err)
		}
		return parsed, nil
	}
}

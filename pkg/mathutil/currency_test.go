package mathutil

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Round up at midpoint", "1.235", "1.24"},
		{"Round down below midpoint", "1.234", "1.23"},
		{"No rounding needed", "1.23", "1.23"},
		{"Large number", "12345.678", "12345.68"},
		{"Negative number round away", "-1.235", "-1.24"},
		{"Negative number round down", "-1.234", "-1.23"},
		{"Zero", "0", "0"},
		{"Very small positive", "0.001", "0"},
		{"Exactly one cent", "0.01", "0.01"},
		{"Nearly two cents", "0.019", "0.02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Round(d(tt.input))
			if !result.Equal(d(tt.expected)) {
				t.Errorf("Round(%s) = %s, expected %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRoundBankers(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1.235", "1.24"},
		{"1.245", "1.24"},
		{"2.5050", "2.50"},
		{"2.5051", "2.51"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := RoundBankers(d(tt.input))
			if !result.Equal(d(tt.expected)) {
				t.Errorf("RoundBankers(%s) = %s, expected %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRounderFor(t *testing.T) {
	tests := []struct {
		mode      string
		input     string
		expected  string
		wantError bool
	}{
		{mode: "", input: "0.125", expected: "0.13"},
		{mode: "half-up", input: "0.125", expected: "0.13"},
		{mode: "bankers", input: "0.125", expected: "0.12"},
		{mode: "Half_Even", input: "0.135", expected: "0.14"},
		{mode: "truncate", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			round, err := RounderFor(tt.mode)
			if tt.wantError {
				if err == nil {
					t.Fatalf("RounderFor(%q) expected error", tt.mode)
				}
				return
			}
			if err != nil {
				t.Fatalf("RounderFor(%q) error = %v", tt.mode, err)
			}
			if got := round(d(tt.input)); !got.Equal(d(tt.expected)) {
				t.Errorf("round(%s) = %s, expected %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPeriodicInterest(t *testing.T) {
	tests := []struct {
		name           string
		balance        string
		rate           string
		periodsPerYear int
		expected       string
	}{
		{"Credit card monthly", "5000", "18", 12, "75.00"},
		{"Standard mortgage", "200000", "6", 12, "1000.00"},
		{"Car loan", "15000", "4.5", 12, "56.25"},
		{"Zero interest", "10000", "0", 12, "0"},
		{"Ten percent rounds", "1000", "10", 12, "8.33"},
		{"Biweekly", "2600", "26", 26, "26.00"},
		{"Non-positive periods defaults to monthly", "1200", "12", 0, "12.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := PeriodicInterest(d(tt.balance), d(tt.rate), tt.periodsPerYear, nil)
			if !result.Equal(d(tt.expected)) {
				t.Errorf("PeriodicInterest() = %s, expected %s", result, tt.expected)
			}
		})
	}
}

func TestSignHelpers(t *testing.T) {
	if !IsZero(d("0.004")) {
		t.Error("IsZero(0.004) should be true")
	}
	if IsZero(d("0.01")) {
		t.Error("IsZero(0.01) should be false")
	}
	if !IsPositive(d("0.01")) || IsPositive(d("0.004")) {
		t.Error("IsPositive tolerance mismatch")
	}
	if !IsNegative(d("-0.01")) || IsNegative(d("-0.004")) {
		t.Error("IsNegative tolerance mismatch")
	}
	if !WithinTolerance(d("10.00"), d("10.01"), Cent) {
		t.Error("WithinTolerance should accept one cent")
	}
	if WithinTolerance(d("10.00"), d("10.02"), Cent) {
		t.Error("WithinTolerance should reject two cents")
	}
}

func TestMinMax(t *testing.T) {
	if !Min(d("1"), d("2")).Equal(d("1")) {
		t.Error("Min returned wrong value")
	}
	if !Max(d("1"), d("2")).Equal(d("2")) {
		t.Error("Max returned wrong value")
	}
}

func TestCents(t *testing.T) {
	tests := []struct {
		input string
		cents int64
	}{
		{"0", 0},
		{"0.01", 1},
		{"123.45", 12345},
		{"123.455", 12346},
		{"-5.5", -550},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Cents(d(tt.input)); got != tt.cents {
				t.Errorf("Cents(%s) = %d, expected %d", tt.input, got, tt.cents)
			}
			if tt.input != "123.455" {
				if back := FromCents(tt.cents); !back.Equal(d(tt.input)) {
					t.Errorf("FromCents(%d) = %s, expected %s", tt.cents, back, tt.input)
				}
			}
		})
	}
}

func TestSum(t *testing.T) {
	if got := Sum(d("1.10"), d("2.20"), d("3.30")); !got.Equal(d("6.60")) {
		t.Errorf("Sum() = %s, expected 6.60", got)
	}
	if got := Sum(); !got.IsZero() {
		t.Errorf("Sum() of nothing = %s, expected 0", got)
	}
}

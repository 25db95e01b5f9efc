package runner

import (
	"math"
	"testing"
)

func TestParseCurrency(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"R$ 1.234,56", 1234.56},
		{"$1,234.56", 1234.56},
		{"1234.56", 1234.56},
		{"R$ 10,50", 10.5},
		{"$ 42", 42},
		{"1.234", 1234},
		{"12,345,678.90", 12345678.90},
		{"-5,25", -5.25},
		{"Saldo: R$ 987,00", 987},
	}
	for _, c := range cases {
		got, err := ParseCurrency(c.in)
		if err != nil {
			t.Errorf("ParseCurrency(%q): unexpected error %v", c.in, err)
			continue
		}
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("ParseCurrency(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseCurrencyRejectsNonNumeric(t *testing.T) {
	for _, in := range []string{"", "loading...", "R$ --"} {
		if _, err := ParseCurrency(in); err == nil {
			t.Errorf("ParseCurrency(%q): expected error", in)
		}
	}
}

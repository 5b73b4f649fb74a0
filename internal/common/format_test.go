package common

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"5", "5.00"},
		{"999.999", "1,000.00"},
		{"1000", "1,000.00"},
		{"1234567.5", "1,234,567.50"},
		{"-2500.25", "-2,500.25"},
		{"100000", "100,000.00"},
	}
	for _, tt := range tests {
		if got := FormatAmount(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatAmount(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBoxPrefix(t *testing.T) {
	if got := BoxPrefix(false); got != "│  " {
		t.Errorf("BoxPrefix(false) = %q", got)
	}
	if got := BoxPrefix(true); got != "└  " {
		t.Errorf("BoxPrefix(true) = %q", got)
	}
}

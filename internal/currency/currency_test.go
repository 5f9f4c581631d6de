package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	var tests = []struct {
		in       string
		expected string
	}{
		{"usd", "USD"},
		{"Usd", "USD"},
		{" eur ", "EUR"},
		{"GBP", "GBP"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Normalize(tt.in))
	}
}

func TestIsKnown(t *testing.T) {
	var tests = []struct {
		code     string
		expected bool
	}{
		{"usd", true},
		{"EUR", true},
		{"jpy", true},
		{"xyz", false},
		{"", false},
		{"dogecoin", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, IsKnown(tt.code), tt.code)
	}
}

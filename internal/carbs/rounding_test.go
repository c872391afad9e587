package carbs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func ptr(v float64) *float64 { return &v }

func TestRoundForStorage(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{12.555, 12.56},
		{12.554, 12.55},
		{5.125, 5.13},
		{0.005, 0.01},
		{0.004, 0},
		{-0.005, -0.01},
		{1, 1},
		{28, 28},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundForStorage(tt.in), "RoundForStorage(%v)", tt.in)
	}
}

func TestRoundForStorageNormalizesNegativeZero(t *testing.T) {
	got := RoundForStorage(-0.001)
	assert.Equal(t, 0.0, got)
	assert.False(t, math.Signbit(got))
}

func TestRoundForStorageIdempotent(t *testing.T) {
	inputs := []float64{0, 0.001, 0.005, 1.005, 2.675, 12.555, 99.999, -3.14159, 1e6 + 0.125, 123456.789}
	for _, x := range inputs {
		once := RoundForStorage(x)
		assert.Equal(t, once, RoundForStorage(once), "x=%v", x)
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name   string
		in     *float64
		want   float64
		wantOK bool
	}{
		{"missing", nil, 0, false},
		{"zero", ptr(0), 0, false},
		{"negative", ptr(-5), 0, false},
		{"rounds to zero", ptr(0.004), 0, false},
		{"rounds to zero again", ptr(0.001), 0, false},
		{"smallest accepted", ptr(0.005), 0.01, true},
		{"rounded", ptr(12.555), 12.56, true},
		{"not a number", ptr(math.NaN()), 0, false},
		{"infinite", ptr(math.Inf(1)), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ValidateAmount(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFoodAmount(t *testing.T) {
	raw := FoodAmount(14.0, 200)
	assert.InDelta(t, 28.0, raw, 1e-9)

	stored, ok := ValidateAmount(&raw)
	assert.True(t, ok)
	assert.Equal(t, 28.0, stored)
}

func TestFormatGrams(t *testing.T) {
	tests := []struct {
		in   float64
		tag  language.Tag
		want string
	}{
		{1.0, language.English, "1g"},
		{0, language.English, "0g"},
		{12.555, language.English, "12.56g"},
		{-1.0, language.English, "-1g"},
		{-5.25, language.English, "-5.25g"},
		{16.1, language.English, "16.1g"},
		{1234.5, language.English, "1234.5g"},
		{1.5, language.German, "1,5g"},
		{0.004, language.English, "0g"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatGrams(tt.in, tt.tag), "FormatGrams(%v, %s)", tt.in, tt.tag)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "7.5", FormatAmount(7.5, language.English, 1))
	assert.Equal(t, "20", FormatAmount(20, language.English, 1))
	assert.Equal(t, "0", FormatAmount(math.Copysign(0, -1), language.English, 2))
}

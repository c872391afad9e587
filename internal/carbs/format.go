package carbs

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// GramSuffix is appended to every displayed amount
const GramSuffix = "g"

// FormatGrams renders an amount the way it is shown everywhere in the app:
// rounded for storage, locale decimal separator, no grouping, at most two
// fraction digits and a "g" suffix.
func FormatGrams(x float64, tag language.Tag) string {
	s := FormatAmount(RoundForStorage(x), tag, 2)
	return strings.TrimSuffix(s, ".0") + GramSuffix
}

// FormatAmount renders x with between zero and maxFraction fraction digits.
func FormatAmount(x float64, tag language.Tag, maxFraction int) string {
	if x == 0 {
		x = 0 // drops the sign of -0
	}
	p := message.NewPrinter(tag)
	return p.Sprint(number.Decimal(x,
		number.NoSeparator(),
		number.MinFractionDigits(0),
		number.MaxFractionDigits(maxFraction),
	))
}

package carbs

import (
	"fmt"
	"math"

	"golang.org/x/text/language"

	"github.com/vladimiradmaev/carbclarity/internal/domain"
)

// WarningIcon is appended to a day-total line over the warn limit
const WarningIcon = "⚠️"

// summaryFraction is the number of fraction digits used in spoken summaries
const summaryFraction = 1

// DayTotalLine renders the header of a history day group.
// Only the warn limit adds the icon; caution never does.
func DayTotalLine(total float64, th domain.Thresholds, tag language.Tag) string {
	line := "Total: " + FormatGrams(total, tag)
	if Evaluate(total, th).ExceedingWarn {
		line += " " + WarningIcon
	}
	return line
}

// DailySummary is the plain-text answer to "how many carbs today".
func DailySummary(total float64, count int, th domain.Thresholds, tag language.Tag) string {
	if count == 0 {
		return "You haven't logged any carbs today."
	}

	noun := "entries"
	if count == 1 {
		noun = "entry"
	}
	text := fmt.Sprintf("Today you've consumed %s grams of carbs from %d %s.",
		FormatAmount(total, tag, summaryFraction), count, noun)

	ev := Evaluate(total, th)
	switch {
	case ev.ExceedingWarn:
		over := total - th.WarnLimit
		text += fmt.Sprintf(" You're %s grams over your limit.", FormatAmount(over, tag, summaryFraction))
	case ev.ExceedingCaution:
		text += " You're approaching your limit."
	default:
		if remaining := math.Max(0, th.WarnLimit-total); remaining > 0 {
			text += fmt.Sprintf(" You have %s grams remaining.", FormatAmount(remaining, tag, summaryFraction))
		}
	}
	return text
}

// LoggedMessage confirms a newly stored entry
func LoggedMessage(value float64, tag language.Tag) string {
	return fmt.Sprintf("Logged %s grams of carbs", FormatAmount(value, tag, summaryFraction))
}

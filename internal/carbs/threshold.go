package carbs

import (
	"github.com/vladimiradmaev/carbclarity/internal/domain"
)

// Evaluation is the outcome of checking a daily total against the thresholds
type Evaluation struct {
	ExceedingWarn    bool
	ExceedingCaution bool
	Class            domain.DisplayClass
}

// Evaluate classifies total against th. Both checks are strict greater-than and
// the warn flag takes priority over caution whatever the limits' ordering.
func Evaluate(total float64, th domain.Thresholds) Evaluation {
	ev := Evaluation{
		ExceedingWarn:    th.WarnEnabled && total > th.WarnLimit,
		ExceedingCaution: th.CautionEnabled && total > th.CautionLimit,
		Class:            domain.ClassNormal,
	}

	switch {
	case ev.ExceedingWarn:
		ev.Class = domain.ClassWarning
	case ev.ExceedingCaution:
		ev.Class = domain.ClassCaution
	}
	return ev
}

// ShowWarningIcon reports whether the warning glyph accompanies a total
func ShowWarningIcon(class domain.DisplayClass) bool {
	return class == domain.ClassWarning
}

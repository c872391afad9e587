package carbs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vladimiradmaev/carbclarity/internal/domain"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		th    domain.Thresholds
		want  Evaluation
	}{
		{
			name:  "below both",
			total: 10,
			th:    domain.DefaultThresholds(),
			want:  Evaluation{Class: domain.ClassNormal},
		},
		{
			name:  "equal to caution",
			total: 15,
			th:    domain.DefaultThresholds(),
			want:  Evaluation{Class: domain.ClassNormal},
		},
		{
			name:  "above caution",
			total: 16,
			th:    domain.DefaultThresholds(),
			want:  Evaluation{ExceedingCaution: true, Class: domain.ClassCaution},
		},
		{
			name:  "equal to warn",
			total: 20,
			th:    domain.DefaultThresholds(),
			want:  Evaluation{ExceedingCaution: true, Class: domain.ClassCaution},
		},
		{
			name:  "above warn",
			total: 20.01,
			th:    domain.DefaultThresholds(),
			want:  Evaluation{ExceedingWarn: true, ExceedingCaution: true, Class: domain.ClassWarning},
		},
		{
			name:  "warn wins with lower warn limit",
			total: 25,
			th:    domain.Thresholds{WarnLimit: 10, WarnEnabled: true, CautionLimit: 15, CautionEnabled: true},
			want:  Evaluation{ExceedingWarn: true, ExceedingCaution: true, Class: domain.ClassWarning},
		},
		{
			name:  "inverted limits",
			total: 22,
			th:    domain.Thresholds{WarnLimit: 5, WarnEnabled: true, CautionLimit: 20, CautionEnabled: true},
			want:  Evaluation{ExceedingWarn: true, ExceedingCaution: true, Class: domain.ClassWarning},
		},
		{
			name:  "inverted limits below caution",
			total: 10,
			th:    domain.Thresholds{WarnLimit: 5, WarnEnabled: true, CautionLimit: 20, CautionEnabled: true},
			want:  Evaluation{ExceedingWarn: true, Class: domain.ClassWarning},
		},
		{
			name:  "warn disabled",
			total: 30,
			th:    domain.Thresholds{WarnLimit: 20, CautionLimit: 15, CautionEnabled: true},
			want:  Evaluation{ExceedingCaution: true, Class: domain.ClassCaution},
		},
		{
			name:  "both disabled",
			total: 30,
			th:    domain.Thresholds{WarnLimit: 20, CautionLimit: 15},
			want:  Evaluation{Class: domain.ClassNormal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.total, tt.th))
		})
	}
}

func TestShowWarningIcon(t *testing.T) {
	assert.True(t, ShowWarningIcon(domain.ClassWarning))
	assert.False(t, ShowWarningIcon(domain.ClassCaution))
	assert.False(t, ShowWarningIcon(domain.ClassNormal))
}

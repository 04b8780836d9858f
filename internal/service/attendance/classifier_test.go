package attendance

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/company"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	shift := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	policy := company.DefaultPolicy()

	tests := []struct {
		name         string
		after        time.Duration
		wantStatus   attendance.Status
		wantMinutes  int
		wantIncident bool
	}{
		{"an hour early", -time.Hour, attendance.StatusPresent, 0, false},
		{"exactly on time", 0, attendance.StatusPresent, 0, false},
		{"within grace", 29*time.Minute + 59*time.Second, attendance.StatusPresent, 29, false},
		{"late boundary inclusive", 30 * time.Minute, attendance.StatusPresent, 30, false},
		{"one minute late", 31 * time.Minute, attendance.StatusLate, 31, true},
		{"half day boundary inclusive", 90 * time.Minute, attendance.StatusLate, 90, true},
		{"half day", 91 * time.Minute, attendance.StatusHalfDay, 91, true},
		{"absent boundary inclusive", 180 * time.Minute, attendance.StatusHalfDay, 180, true},
		{"absent", 181 * time.Minute, attendance.StatusAbsent, 181, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(shift, shift.Add(tt.after), policy)

			assert.Equal(t, tt.wantStatus, c.Status)
			assert.Equal(t, tt.wantMinutes, c.MinutesLate)
			assert.Equal(t, tt.wantIncident, c.IncidentRequired)
		})
	}
}

func TestClassify_ZeroThresholds(t *testing.T) {
	shift := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	strict := company.Policy{}

	assert.Equal(t, attendance.StatusPresent, Classify(shift, shift, strict).Status)
	assert.Equal(t, attendance.StatusAbsent, Classify(shift, shift.Add(time.Minute), strict).Status)
}

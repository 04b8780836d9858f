package attendance

import (
	"math"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/company"
)

// Classification is the outcome of comparing a check-in with the shift start.
type Classification struct {
	Status attendance.Status
	// MinutesLate is clamped at zero for early or on-time arrivals.
	MinutesLate      int
	IncidentRequired bool
}

// Classify applies the policy tiers. Each threshold is inclusive on the
// milder status: a check-in exactly lateThreshold minutes after shift start
// is still present.
func Classify(shiftStart, checkIn time.Time, p company.Policy) Classification {
	minutes := int(math.Floor(checkIn.Sub(shiftStart).Minutes()))

	var c Classification
	switch {
	case minutes <= p.LateThresholdMinutes:
		c.Status = attendance.StatusPresent
	case minutes <= p.HalfDayThresholdMinutes:
		c.Status, c.IncidentRequired = attendance.StatusLate, true
	case minutes <= p.AbsentThresholdMinutes:
		c.Status, c.IncidentRequired = attendance.StatusHalfDay, true
	default:
		c.Status, c.IncidentRequired = attendance.StatusAbsent, true
	}

	if minutes > 0 {
		c.MinutesLate = minutes
	}
	return c
}

package company

import "time"

const (
	DefaultLateThresholdMinutes    = 30
	DefaultHalfDayThresholdMinutes = 90
	DefaultAbsentThresholdMinutes  = 180
	DefaultMonthlyLateAllowance    = 3
)

// Policy is the company-wide attendance configuration. Thresholds are
// minutes after shift start and must ascend: late <= half day <= absent.
type Policy struct {
	ID                      string
	LateThresholdMinutes    int
	HalfDayThresholdMinutes int
	AbsentThresholdMinutes  int
	MonthlyLateAllowance    int
	UpdatedAt               time.Time
}

func DefaultPolicy() Policy {
	return Policy{
		LateThresholdMinutes:    DefaultLateThresholdMinutes,
		HalfDayThresholdMinutes: DefaultHalfDayThresholdMinutes,
		AbsentThresholdMinutes:  DefaultAbsentThresholdMinutes,
		MonthlyLateAllowance:    DefaultMonthlyLateAllowance,
	}
}

// Valid reports whether the thresholds ascend and nothing is negative.
func (p Policy) Valid() bool {
	return p.LateThresholdMinutes >= 0 &&
		p.LateThresholdMinutes <= p.HalfDayThresholdMinutes &&
		p.HalfDayThresholdMinutes <= p.AbsentThresholdMinutes &&
		p.MonthlyLateAllowance >= 0
}

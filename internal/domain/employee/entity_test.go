package employee

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmployee_Shift(t *testing.T) {
	early, bad, empty := "07:30", "7.30", ""

	cases := []struct {
		name      string
		emp       Employee
		wantStart string
	}{
		{"no shift", Employee{}, DefaultShiftStart},
		{"own shift", Employee{ShiftStart: &early}, "07:30"},
		{"malformed shift", Employee{ShiftStart: &bad}, DefaultShiftStart},
		{"empty shift", Employee{ShiftStart: &empty}, DefaultShiftStart},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			start, end := tc.emp.Shift(DefaultShiftStart, DefaultShiftEnd)

			// Assert
			assert.Equal(t, tc.wantStart, start)
			assert.Equal(t, DefaultShiftEnd, end)
		})
	}
}

package company

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubPolicyRepo struct {
	policy Policy
	err    error
}

func (s stubPolicyRepo) Get(context.Context) (Policy, error) {
	return s.policy, s.err
}

func TestPolicySource_Effective(t *testing.T) {
	custom := Policy{LateThresholdMinutes: 15, HalfDayThresholdMinutes: 60, AbsentThresholdMinutes: 240, MonthlyLateAllowance: 2}

	cases := []struct {
		name string
		repo stubPolicyRepo
		want Policy
	}{
		{"stored policy", stubPolicyRepo{policy: custom}, custom},
		{"missing", stubPolicyRepo{err: ErrPolicyNotFound}, DefaultPolicy()},
		{"read failure", stubPolicyRepo{err: errors.New("connection reset")}, DefaultPolicy()},
		{"descending thresholds", stubPolicyRepo{policy: Policy{LateThresholdMinutes: 90, HalfDayThresholdMinutes: 30, AbsentThresholdMinutes: 180}}, DefaultPolicy()},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := NewPolicySource(c.repo).Effective(context.Background())
			assert.Equal(t, c.want, got)
		})
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 30, p.LateThresholdMinutes)
	assert.Equal(t, 90, p.HalfDayThresholdMinutes)
	assert.Equal(t, 180, p.AbsentThresholdMinutes)
	assert.Equal(t, 3, p.MonthlyLateAllowance)
	assert.True(t, p.Valid())
}

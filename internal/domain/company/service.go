package company

import (
	"context"
	"errors"
	"log/slog"
)

// PolicySource resolves the effective policy, substituting defaults when the
// stored record is missing or inconsistent so attendance capture never fails
// on configuration.
type PolicySource struct {
	repo PolicyRepository
}

func NewPolicySource(repo PolicyRepository) *PolicySource {
	return &PolicySource{repo: repo}
}

func (s *PolicySource) Effective(ctx context.Context) Policy {
	p, err := s.repo.Get(ctx)
	switch {
	case errors.Is(err, ErrPolicyNotFound):
		slog.Warn("Attendance policy missing, using defaults")
		return DefaultPolicy()
	case err != nil:
		slog.Error("Failed to load attendance policy, using defaults", "error", err)
		return DefaultPolicy()
	case !p.Valid():
		slog.Warn("Attendance policy invalid, using defaults",
			"late", p.LateThresholdMinutes,
			"half_day", p.HalfDayThresholdMinutes,
			"absent", p.AbsentThresholdMinutes,
		)
		return DefaultPolicy()
	}
	return p
}

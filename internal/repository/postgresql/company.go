package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type policyRepositoryImpl struct {
	db *database.DB
}

func NewPolicyRepository(db *database.DB) company.PolicyRepository {
	return &policyRepositoryImpl{db: db}
}

// Get implements company.PolicyRepository. The most recently updated row wins.
func (p *policyRepositoryImpl) Get(ctx context.Context) (company.Policy, error) {
	q := GetQuerier(ctx, p.db)

	query := `
		SELECT id, late_threshold_minutes, half_day_threshold_minutes, absent_threshold_minutes,
			   monthly_late_allowance, updated_at
		FROM company_policies
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var policy company.Policy
	err := q.QueryRow(ctx, query).Scan(
		&policy.ID, &policy.LateThresholdMinutes, &policy.HalfDayThresholdMinutes, &policy.AbsentThresholdMinutes,
		&policy.MonthlyLateAllowance, &policy.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return company.Policy{}, company.ErrPolicyNotFound
		}
		return company.Policy{}, fmt.Errorf("failed to get company policy: %w", err)
	}
	return policy, nil
}

package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/timeutil"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/service/aggregate"
)

type LeaveServiceImpl struct {
	tx         database.Transactor
	leaves     leave.LeaveRepository
	employees  employee.EmployeeRepository
	aggregates *aggregate.Updater
	normalizer *timeutil.Normalizer
	now        func() time.Time
}

// Submit implements leave.LeaveService.
func (s *LeaveServiceImpl) Submit(ctx context.Context, req leave.SubmitLeaveRequest) (leave.LeaveResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveResponse{}, err
	}

	emp, err := s.employees.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if !emp.IsActive() {
		return leave.LeaveResponse{}, employee.ErrEmployeeInactive
	}

	start, err := s.normalizer.ParseDate(req.StartDate)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	end, err := s.normalizer.ParseDate(req.EndDate)
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	var created leave.LeaveRecord
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		overlaps, err := s.leaves.HasOverlap(txCtx, emp.ID, start, end)
		if err != nil {
			return fmt.Errorf("failed to check leave overlap: %w", err)
		}
		if overlaps {
			return leave.ErrLeaveOverlaps
		}

		created, err = s.leaves.Create(txCtx, leave.LeaveRecord{
			EmployeeID: emp.ID,
			StartDate:  start,
			EndDate:    end,
			Reason:     req.Reason,
			Status:     leave.StatusPending,
		})
		if err != nil {
			return fmt.Errorf("failed to create leave record: %w", err)
		}
		return nil
	})
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	return leave.ToResponse(created), nil
}

// Decide implements leave.LeaveService.
func (s *LeaveServiceImpl) Decide(ctx context.Context, req leave.DecideLeaveRequest) (leave.LeaveResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveResponse{}, err
	}

	var decided leave.LeaveRecord
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		record, err := s.leaves.LockByID(txCtx, req.ID)
		if err != nil {
			return err
		}
		if record.Status != leave.StatusPending {
			return leave.ErrLeaveAlreadyDecided
		}

		now := s.now()
		reviewer := req.ReviewerID
		record.Status = leave.Status(req.Status)
		record.ReviewerID = &reviewer
		record.ReviewedAt = &now
		if record.Status == leave.StatusRejected {
			record.RejectionReason = req.RejectionReason
		}
		if err := s.leaves.Update(txCtx, record); err != nil {
			return fmt.Errorf("failed to update leave record: %w", err)
		}

		if record.Status == leave.StatusApproved {
			if err := s.aggregates.ApplyLeaveDays(txCtx, record.EmployeeID, record.Days()); err != nil {
				return fmt.Errorf("failed to count leave days: %w", err)
			}
		}

		decided, err = s.leaves.GetByID(txCtx, record.ID)
		return err
	})
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	slog.Info("Leave decided",
		"leave_id", decided.ID,
		"employee_id", decided.EmployeeID,
		"status", decided.Status,
		"reviewer_id", req.ReviewerID,
	)
	return leave.ToResponse(decided), nil
}

// IsOnLeave implements leave.LeaveService.
func (s *LeaveServiceImpl) IsOnLeave(ctx context.Context, employeeID string, date string) (bool, error) {
	d, err := s.normalizer.ParseDate(date)
	if err != nil {
		return false, err
	}
	approved, err := s.leaves.ListApprovedOn(ctx, d)
	if err != nil {
		return false, fmt.Errorf("failed to list approved leaves: %w", err)
	}
	for _, l := range approved {
		if l.EmployeeID == employeeID {
			return true, nil
		}
	}
	return false, nil
}

// ListOnLeave implements leave.LeaveService.
func (s *LeaveServiceImpl) ListOnLeave(ctx context.Context, date string) ([]leave.LeaveResponse, error) {
	d, err := s.normalizer.ParseDate(date)
	if err != nil {
		return nil, err
	}
	approved, err := s.leaves.ListApprovedOn(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leaves: %w", err)
	}

	resp := make([]leave.LeaveResponse, 0, len(approved))
	for _, l := range approved {
		resp = append(resp, leave.ToResponse(l))
	}
	return resp, nil
}

func NewLeaveService(
	tx database.Transactor,
	leaveRepo leave.LeaveRepository,
	employeeRepo employee.EmployeeRepository,
	aggregates *aggregate.Updater,
	normalizer *timeutil.Normalizer,
) leave.LeaveService {
	return &LeaveServiceImpl{
		tx:         tx,
		leaves:     leaveRepo,
		employees:  employeeRepo,
		aggregates: aggregates,
		normalizer: normalizer,
		now:        time.Now,
	}
}

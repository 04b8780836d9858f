package postgresql_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/incident"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/maintenance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/repository/postgresql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEmployeeID = "0192f5a0-0000-7000-8000-000000000001"

var testDate = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func newDailyRecord(checkIn time.Time) attendance.DailyRecord {
	return attendance.DailyRecord{
		EmployeeID:     testEmployeeID,
		Date:           testDate,
		CheckIn:        &checkIn,
		Mode:           attendance.ModeOnsite,
		Status:         attendance.StatusLate,
		MinutesLate:    45,
		ScheduledStart: "09:00",
	}
}

func TestEmployeeRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	setup := NewTestDatabase(t)
	require.NoError(t, setup.InsertEmployee(ctx, testEmployeeID, "30000"))
	repo := postgresql.NewEmployeeRepository(setup.DB)

	// Act
	emp, err := repo.GetByID(ctx, testEmployeeID)

	// Assert
	require.NoError(t, err)
	assert.True(t, emp.IsActive())
	require.NotNil(t, emp.ShiftStart)
	assert.Equal(t, "09:00", *emp.ShiftStart)
	require.NotNil(t, emp.BaseSalary)
	assert.True(t, emp.BaseSalary.Equal(decimal.NewFromInt(30000)))

	_, err = repo.GetByID(ctx, "0192f5a0-0000-7000-8000-0000000000ff")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestPolicyRepository_Get_NotFound(t *testing.T) {
	setup := NewTestDatabase(t)

	// Act
	_, err := postgresql.NewPolicyRepository(setup.DB).Get(context.Background())

	// Assert
	assert.ErrorIs(t, err, company.ErrPolicyNotFound)
}

func TestDailyRecordRepository_CreateIfAbsent_SingleWinner(t *testing.T) {
	ctx := context.Background()
	setup := NewTestDatabase(t)
	require.NoError(t, setup.InsertEmployee(ctx, testEmployeeID, "30000"))
	repo := postgresql.NewDailyRecordRepository(setup.DB)
	checkIn := time.Date(2025, 3, 10, 4, 45, 0, 0, time.UTC)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = map[string]struct{}{}
	)

	// Act
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stored, ok, err := repo.CreateIfAbsent(ctx, newDailyRecord(checkIn))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if ok {
				created++
			}
			ids[stored.ID] = struct{}{}
		}()
	}
	wg.Wait()

	// Assert
	assert.Equal(t, 1, created)
	assert.Len(t, ids, 1)
}

func TestDailyRecordRepository_CheckOutAndPending(t *testing.T) {
	ctx := context.Background()
	setup := NewTestDatabase(t)
	require.NoError(t, setup.InsertEmployee(ctx, testEmployeeID, "30000"))
	repo := postgresql.NewDailyRecordRepository(setup.DB)
	checkIn := time.Date(2025, 3, 10, 4, 45, 0, 0, time.UTC)

	rec, created, err := repo.CreateIfAbsent(ctx, newDailyRecord(checkIn))
	require.NoError(t, err)
	require.True(t, created)

	pending, err := repo.ListPendingBookkeeping(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// Act
	require.NoError(t, repo.SetCheckOut(ctx, rec.ID, checkIn.Add(8*time.Hour), decimal.RequireFromString("8.25")))
	require.NoError(t, repo.MarkBookkeepingApplied(ctx, rec.ID))

	// Assert
	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.BookkeepingApplied)
	require.NotNil(t, got.WorkingHours)
	assert.Equal(t, "8.25", got.WorkingHours.String())

	pending, err = repo.ListPendingBookkeeping(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.ErrorIs(t, repo.SetStatus(ctx, "0192f5a0-0000-7000-8000-0000000000ff", attendance.StatusAbsent), attendance.ErrAttendanceNotFound)
}

func TestDailyRecordRepository_ListOpenSessions(t *testing.T) {
	ctx := context.Background()
	setup := NewTestDatabase(t)
	require.NoError(t, setup.InsertEmployee(ctx, testEmployeeID, "30000"))
	repo := postgresql.NewDailyRecordRepository(setup.DB)
	checkIn := time.Date(2025, 3, 10, 4, 45, 0, 0, time.UTC)

	rec, _, err := repo.CreateIfAbsent(ctx, newDailyRecord(checkIn))
	require.NoError(t, err)

	// Act
	open, err := repo.ListOpenSessions(ctx, testDate)
	require.NoError(t, err)
	require.NoError(t, repo.SetCheckOut(ctx, rec.ID, checkIn.Add(8*time.Hour), decimal.NewFromInt(8)))
	closed, err := repo.ListOpenSessions(ctx, testDate)

	// Assert
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, rec.ID, open[0].ID)
	assert.Empty(t, closed)
}

func TestAggregateRepository_FloorsAtZero(t *testing.T) {
	ctx := context.Background()
	setup := NewTestDatabase(t)
	require.NoError(t, setup.InsertEmployee(ctx, testEmployeeID, "30000"))
	repo := postgresql.NewAggregateRepository(setup.DB)

	require.NoError(t, repo.EnsureLifetime(ctx, testEmployeeID, 3))
	require.NoError(t, repo.EnsureLifetime(ctx, testEmployeeID, 9))
	require.NoError(t, repo.EnsureMonthly(ctx, testEmployeeID, "2025-03"))

	// Act
	lifetime, err := repo.ApplyLifetimeDelta(ctx, testEmployeeID, attendance.CounterDelta{Late: -1, LateAllowance: -5})
	require.NoError(t, err)
	monthly, err := repo.ApplyMonthlyDelta(ctx, testEmployeeID, "2025-03", attendance.CounterDelta{Present: 1, HalfDay: -1})
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 0, lifetime.LateDays)
	assert.Equal(t, 0, lifetime.LateAllowanceRemaining)
	assert.Equal(t, 1, monthly.TotalPresent)
	assert.Equal(t, 0, monthly.TotalHalfDays)

	_, err = repo.GetMonthly(ctx, testEmployeeID, "2025-04")
	assert.ErrorIs(t, err, attendance.ErrAttendanceSummaryNotFound)

	n, err := repo.ResetLateAllowance(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.AccrueLeave(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	lifetime, err = repo.GetLifetime(ctx, testEmployeeID)
	require.NoError(t, err)
	assert.Equal(t, 3, lifetime.LateAllowanceRemaining)
	assert.Equal(t, 2, lifetime.AvailableLeaves)
}

func TestIncidentRepository_OneCreatedPerDay(t *testing.T) {
	ctx := context.Background()
	setup := NewTestDatabase(t)
	require.NoError(t, setup.InsertEmployee(ctx, testEmployeeID, "30000"))
	repo := postgresql.NewIncidentRepository(setup.DB)
	actual := time.Date(2025, 3, 10, 4, 45, 0, 0, time.UTC)

	// Act
	first, err := repo.Create(ctx, incident.New(incident.KindLate, testEmployeeID, testDate, "09:00", actual, 45))
	require.NoError(t, err)
	second, err := repo.Create(ctx, incident.New(incident.KindLate, testEmployeeID, testDate, "09:00", actual, 45))
	require.NoError(t, err)

	// Assert
	assert.Equal(t, first.ID, second.ID)

	reason := "traffic"
	outcome := incident.OutcomePaid
	first.Reason = &reason
	first.Outcome = &outcome
	first.Stage = incident.StageCompleted
	require.NoError(t, repo.Update(ctx, first))

	_, err = repo.FindLatestCreated(ctx, incident.KindLate, testEmployeeID, testDate)
	assert.ErrorIs(t, err, incident.ErrNoOpenIncident)

	stats, err := repo.Stats(ctx, incident.KindLate, incident.Query{})
	require.NoError(t, err)
	assert.Equal(t, incident.Stats{Total: 1, Completed: 1, Paid: 1}, stats)

	_, err = repo.GetByID(ctx, incident.KindHalfDay, first.ID)
	assert.ErrorIs(t, err, incident.ErrIncidentNotFound)
}

func TestDeductionLogRepository_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	setup := NewTestDatabase(t)
	require.NoError(t, setup.InsertEmployee(ctx, testEmployeeID, "30000"))
	repo := postgresql.NewDeductionLogRepository(setup.DB)

	first, err := repo.Upsert(ctx, payroll.DeductionLog{
		EmployeeID: testEmployeeID,
		Month:      "2025-03",
		Breakdown:  payroll.DeductionBreakdown{TotalDeduction: decimal.NewFromInt(5000)},
	})
	require.NoError(t, err)

	// Act
	second, err := repo.Upsert(ctx, payroll.DeductionLog{
		EmployeeID: testEmployeeID,
		Month:      "2025-03",
		Breakdown:  payroll.DeductionBreakdown{TotalDeduction: decimal.NewFromInt(6000)},
	})
	require.NoError(t, err)

	// Assert
	assert.Equal(t, first.ID, second.ID)
	got, err := repo.GetByEmployeeMonth(ctx, testEmployeeID, "2025-03")
	require.NoError(t, err)
	assert.True(t, got.Breakdown.TotalDeduction.Equal(decimal.NewFromInt(6000)))
}

func TestRunRepository_ClaimOncePerPeriod(t *testing.T) {
	ctx := context.Background()
	setup := NewTestDatabase(t)
	repo := postgresql.NewRunRepository(setup.DB)

	run, err := repo.Claim(ctx, maintenance.JobResetLateAllowance, "2025-03")
	require.NoError(t, err)
	require.NoError(t, repo.SetAffected(ctx, run.ID, 12))

	// Act
	_, err = repo.Claim(ctx, maintenance.JobResetLateAllowance, "2025-03")

	// Assert
	assert.ErrorIs(t, err, maintenance.ErrPeriodAlreadyProcessed)
	got, err := repo.Get(ctx, maintenance.JobResetLateAllowance, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.Affected)

	_, err = repo.Claim(ctx, maintenance.JobMarkAbsent, "2025-03-31")
	assert.NoError(t, err, "daily periods fit the ledger column")
}

func TestTxManager_RollbackUndoesWrites(t *testing.T) {
	ctx := context.Background()
	setup := NewTestDatabase(t)
	tx := postgresql.NewTxManager(setup.DB)
	runs := postgresql.NewRunRepository(setup.DB)

	// Act
	err := tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if _, err := runs.Claim(txCtx, maintenance.JobAccrueLeave, "2025-03"); err != nil {
			return err
		}
		return maintenance.ErrUnknownJob
	})

	// Assert
	assert.ErrorIs(t, err, maintenance.ErrUnknownJob)
	_, err = runs.Get(ctx, maintenance.JobAccrueLeave, "2025-03")
	assert.ErrorIs(t, err, maintenance.ErrRunNotFound)
}

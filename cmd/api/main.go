package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/config"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/incident"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/maintenance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	appHTTP "github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/timeutil"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/repository/memory"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/repository/postgresql"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/service/aggregate"
	attendanceService "github.com/cmlabs-hris/hris-attendance-engine/internal/service/attendance"
	incidentService "github.com/cmlabs-hris/hris-attendance-engine/internal/service/incident"
	leaveService "github.com/cmlabs-hris/hris-attendance-engine/internal/service/leave"
	payrollService "github.com/cmlabs-hris/hris-attendance-engine/internal/service/payroll"
)

// repositories is the storage backend selected by APP_STORAGE.
type repositories struct {
	tx         database.Transactor
	health     database.HealthChecker
	records    attendance.DailyRecordRepository
	aggregates attendance.AggregateRepository
	incidents  incident.IncidentRepository
	employees  employee.EmployeeRepository
	policies   company.PolicyRepository
	leaves     leave.LeaveRepository
	sales      payroll.SalesAdjustmentRepository
	logs       payroll.DeductionLogRepository
	runs       maintenance.RunRepository
	close      func()
}

func postgresRepositories(cfg *config.Config) (*repositories, error) {
	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		return nil, err
	}
	db.SetReconnectPolicy(cfg.Database.MaxReconnectAttempts, 2*time.Second)

	return &repositories{
		tx:         postgresql.NewTxManager(db),
		health:     db,
		records:    postgresql.NewDailyRecordRepository(db),
		aggregates: postgresql.NewAggregateRepository(db),
		incidents:  postgresql.NewIncidentRepository(db),
		employees:  postgresql.NewEmployeeRepository(db),
		policies:   postgresql.NewPolicyRepository(db),
		leaves:     postgresql.NewLeaveRepository(db),
		sales:      postgresql.NewSalesAdjustmentRepository(db),
		logs:       postgresql.NewDeductionLogRepository(db),
		runs:       postgresql.NewRunRepository(db),
		close:      db.Close,
	}, nil
}

func memoryRepositories() *repositories {
	store := memory.NewStore()
	return &repositories{
		tx:         store,
		health:     store,
		records:    memory.NewDailyRecordRepository(store),
		aggregates: memory.NewAggregateRepository(store),
		incidents:  memory.NewIncidentRepository(store),
		employees:  memory.NewEmployeeRepository(store),
		policies:   memory.NewPolicyRepository(store),
		leaves:     memory.NewLeaveRepository(store),
		sales:      memory.NewSalesAdjustmentRepository(store),
		logs:       memory.NewDeductionLogRepository(store),
		runs:       memory.NewRunRepository(store),
		close:      func() {},
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	var repos *repositories
	if cfg.App.Storage == "memory" {
		slog.Warn("Using in-memory storage, data is lost on restart")
		repos = memoryRepositories()
	} else {
		repos, err = postgresRepositories(cfg)
		if err != nil {
			slog.Error("Error connecting to database", "error", err)
			os.Exit(1)
		}
	}
	defer repos.close()

	normalizer := timeutil.NewNormalizer(cfg.Attendance.UTCOffsetMinutes, cfg.Attendance.ZoneName, cfg.Attendance.CompareInProcessLocal)
	policies := company.NewPolicySource(repos.policies)
	updater := aggregate.NewUpdater(repos.aggregates, cfg.Attendance.LateAllowanceReset)

	incidentSvc := incidentService.NewIncidentService(repos.tx, repos.incidents, updater, normalizer)
	attendanceSvc := attendanceService.NewAttendanceService(
		repos.tx,
		repos.records,
		incidentSvc,
		repos.employees,
		policies,
		updater,
		normalizer,
		cfg.Attendance.DefaultShiftStart,
		cfg.Attendance.DefaultShiftEnd,
	)
	leaveSvc := leaveService.NewLeaveService(repos.tx, repos.leaves, repos.employees, updater, normalizer)
	deductionSvc := payrollService.NewDeductionService(repos.employees, policies, updater, repos.sales, repos.logs)

	maintenanceJobs := cron.NewMaintenanceJobs(
		repos.tx,
		repos.runs,
		repos.aggregates,
		repos.employees,
		attendanceSvc,
		leaveSvc,
		deductionSvc,
		repos.health,
		normalizer,
		cron.MaintenanceConfig{
			LateResetHour:      cfg.Jobs.LateResetHour,
			LeaveAccrualHour:   cfg.Jobs.LeaveAccrualHour,
			PayrollHour:        cfg.Jobs.PayrollHour,
			PayrollEnabled:     cfg.Jobs.PayrollEnabled,
			MarkAbsentHour:     cfg.Jobs.MarkAbsentHour,
			AutoCheckOutHour:   cfg.Jobs.AutoCheckOutHour,
			LateAllowanceReset: cfg.Attendance.LateAllowanceReset,
			LeaveAccrualDays:   cfg.Attendance.LeaveAccrualDays,
		},
	)

	var scheduler *cron.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = cron.NewScheduler()
		maintenanceJobs.RegisterJobs(scheduler, cfg.Jobs.TickInterval)
		scheduler.Start()
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Env:            cfg.App.Env,
			AllowedOrigins: cfg.App.AllowedOrigins,
			LogLevel:       cfg.SlogLevel(),
		},
		JWTService,
		appHTTP.NewAttendanceHandler(attendanceSvc),
		appHTTP.NewIncidentHandler(incidentSvc),
		appHTTP.NewLeaveHandler(leaveSvc),
		appHTTP.NewPayrollHandler(deductionSvc),
		appHTTP.NewMaintenanceHandler(maintenanceJobs),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env, "storage", cfg.App.Storage)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	if scheduler != nil {
		scheduler.Stop()
	}
}

package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
)

// TestDatabaseSetup holds the connection used by the integration tests.
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and applies the schema. Tests
// are skipped when the variable is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	setup := &TestDatabaseSetup{DB: db}
	if err := setup.migrate(context.Background()); err != nil {
		db.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}
	if err := setup.TruncateAllTables(context.Background()); err != nil {
		db.Close()
		t.Fatalf("failed to truncate test database: %v", err)
	}
	t.Cleanup(setup.Close)
	return setup
}

func (t *TestDatabaseSetup) migrate(ctx context.Context) error {
	schema, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "migrations", "000001_attendance_engine.up.sql"))
	if err != nil {
		return err
	}
	_, err = t.DB.Exec(ctx, string(schema))
	return err
}

// TruncateAllTables removes every row written by a previous test.
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := t.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"maintenance_runs",
		"salary_deduction_logs",
		"sales_adjustments",
		"leave_records",
		"half_day_logs",
		"late_logs",
		"monthly_attendance_summaries",
		"attendance_aggregates",
		"attendance_logs",
		"company_policies",
		"employees",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// InsertEmployee seeds an active employee with a 09:00-17:00 shift.
func (t *TestDatabaseSetup) InsertEmployee(ctx context.Context, id string, baseSalary string) error {
	_, err := t.DB.Exec(ctx, `
		INSERT INTO employees (id, full_name, shift_start, shift_end, employment_status, base_salary)
		VALUES ($1, 'Test Employee', '09:00', '17:00', 'active', $2::numeric)
	`, id, baseSalary)
	return err
}

func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Attendance AttendanceConfig
	Jobs       JobsConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	// Reconnect attempts made by the health check before a job is skipped.
	MaxReconnectAttempts int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	Storage        string
	AllowedOrigins []string
}

// AttendanceConfig holds the regional time and counter settings used by the engine.
type AttendanceConfig struct {
	UTCOffsetMinutes      int
	ZoneName              string
	CompareInProcessLocal bool
	DefaultShiftStart     string
	DefaultShiftEnd       string
	LateAllowanceReset    int
	LeaveAccrualDays      int
}

// JobsConfig controls the scheduled maintenance jobs. Hours are regional.
type JobsConfig struct {
	Enabled          bool
	TickInterval     time.Duration
	LateResetHour    int
	LeaveAccrualHour int
	PayrollHour      int
	MarkAbsentHour   int
	AutoCheckOutHour int
	PayrollEnabled   bool
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file loaded, using process environment", "error", err)
	}

	config := &Config{}

	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	reconnects, err := getEnvInt("DB_MAX_RECONNECT_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}

	config.Database = DatabaseConfig{
		Host:                 getEnv("DB_HOST", "localhost"),
		Port:                 dbPort,
		User:                 getEnv("DB_USER", "postgres"),
		Password:             getEnv("DB_PASSWORD", ""),
		Name:                 getEnv("DB_NAME", "cmlabs_hris_attendance"),
		SSLMode:              getEnv("DB_SSL_MODE", "disable"),
		MaxReconnectAttempts: reconnects,
	}

	appPort, err := getEnvInt("APP_PORT", 8080)
	if err != nil {
		return nil, err
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Storage:        getEnv("APP_STORAGE", "postgres"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	offset, err := getEnvInt("ATTENDANCE_UTC_OFFSET_MINUTES", 300)
	if err != nil {
		return nil, err
	}
	allowance, err := getEnvInt("MONTHLY_LATE_ALLOWANCE_RESET", 3)
	if err != nil {
		return nil, err
	}
	accrual, err := getEnvInt("MONTHLY_LEAVE_ACCRUAL_DAYS", 2)
	if err != nil {
		return nil, err
	}

	config.Attendance = AttendanceConfig{
		UTCOffsetMinutes:      offset,
		ZoneName:              getEnv("ATTENDANCE_ZONE_NAME", "PKT"),
		CompareInProcessLocal: getEnvBool("ATTENDANCE_COMPARE_IN_PROCESS_LOCAL", false),
		DefaultShiftStart:     getEnv("ATTENDANCE_DEFAULT_SHIFT_START", "09:00"),
		DefaultShiftEnd:       getEnv("ATTENDANCE_DEFAULT_SHIFT_END", "17:00"),
		LateAllowanceReset:    allowance,
		LeaveAccrualDays:      accrual,
	}

	tick, err := time.ParseDuration(getEnv("JOB_TICK_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JOB_TICK_INTERVAL: %w", err)
	}
	lateHour, err := getEnvInt("JOB_LATE_RESET_HOUR", 18)
	if err != nil {
		return nil, err
	}
	leaveHour, err := getEnvInt("JOB_LEAVE_ACCRUAL_HOUR", 6)
	if err != nil {
		return nil, err
	}
	payrollHour, err := getEnvInt("JOB_PAYROLL_HOUR", 13)
	if err != nil {
		return nil, err
	}
	absentHour, err := getEnvInt("JOB_MARK_ABSENT_HOUR", 3)
	if err != nil {
		return nil, err
	}
	checkoutHour, err := getEnvInt("JOB_AUTO_CHECKOUT_HOUR", 5)
	if err != nil {
		return nil, err
	}

	config.Jobs = JobsConfig{
		Enabled:          getEnvBool("JOBS_ENABLED", true),
		TickInterval:     tick,
		LateResetHour:    lateHour,
		LeaveAccrualHour: leaveHour,
		PayrollHour:      payrollHour,
		MarkAbsentHour:   absentHour,
		AutoCheckOutHour: checkoutHour,
		PayrollEnabled:   getEnvBool("JOB_PAYROLL_ENABLED", true),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Storage != "postgres" && c.App.Storage != "memory" {
		return fmt.Errorf("APP_STORAGE must be postgres or memory, got %q", c.App.Storage)
	}
	if c.App.Storage == "postgres" && c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Attendance.UTCOffsetMinutes < -12*60 || c.Attendance.UTCOffsetMinutes > 14*60 {
		return fmt.Errorf("ATTENDANCE_UTC_OFFSET_MINUTES out of range: %d", c.Attendance.UTCOffsetMinutes)
	}
	if c.Attendance.LateAllowanceReset < 0 {
		return fmt.Errorf("MONTHLY_LATE_ALLOWANCE_RESET cannot be negative")
	}
	if c.Attendance.LeaveAccrualDays < 0 {
		return fmt.Errorf("MONTHLY_LEAVE_ACCRUAL_DAYS cannot be negative")
	}
	for name, hour := range map[string]int{
		"JOB_LATE_RESET_HOUR":    c.Jobs.LateResetHour,
		"JOB_LEAVE_ACCRUAL_HOUR": c.Jobs.LeaveAccrualHour,
		"JOB_PAYROLL_HOUR":       c.Jobs.PayrollHour,
		"JOB_MARK_ABSENT_HOUR":   c.Jobs.MarkAbsentHour,
		"JOB_AUTO_CHECKOUT_HOUR": c.Jobs.AutoCheckOutHour,
	} {
		if hour < 0 || hour > 23 {
			return fmt.Errorf("%s must be between 0 and 23", name)
		}
	}
	if c.Jobs.TickInterval <= 0 || c.Jobs.TickInterval > time.Hour {
		return fmt.Errorf("JOB_TICK_INTERVAL must be positive and at most 1h, got %s", c.Jobs.TickInterval)
	}
	if !validator.IsValidClock(c.Attendance.DefaultShiftStart) || !validator.IsValidClock(c.Attendance.DefaultShiftEnd) {
		return fmt.Errorf("ATTENDANCE_DEFAULT_SHIFT_START and ATTENDANCE_DEFAULT_SHIFT_END must be HH:MM")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

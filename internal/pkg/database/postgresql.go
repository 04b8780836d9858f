package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDatabaseUnavailable = errors.New("database unavailable")

// DB owns the connection pool and its health state for the process lifetime.
type DB struct {
	*pgxpool.Pool

	mu                   sync.Mutex
	healthy              bool
	lastCheck            time.Time
	maxReconnectAttempts int
	retryDelay           time.Duration
}

func NewPostgreSQLDB(dsn string) (*DB, error) {
	config, err := pgxpool.ParseConfig(dsn)

	if err != nil {
		return nil, err
	}

	// Connection pool settings
	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}

	return &DB{
		Pool:                 pool,
		healthy:              true,
		lastCheck:            time.Now(),
		maxReconnectAttempts: 3,
		retryDelay:           2 * time.Second,
	}, nil
}

// SetReconnectPolicy overrides how many pings EnsureHealthy attempts and the delay between them.
func (db *DB) SetReconnectPolicy(attempts int, delay time.Duration) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if attempts < 1 {
		attempts = 1
	}
	db.maxReconnectAttempts = attempts
	db.retryDelay = delay
}

func (db *DB) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return db.Pool.Begin(ctx)
}

// Healthy reports the result of the last health check.
func (db *DB) Healthy() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.healthy
}

// EnsureHealthy pings the pool, retrying with a fixed delay. The pool re-dials
// broken connections on its own, so a successful ping means it recovered.
func (db *DB) EnsureHealthy(ctx context.Context) error {
	db.mu.Lock()
	attempts, delay := db.maxReconnectAttempts, db.retryDelay
	db.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = db.Pool.Ping(ctx); lastErr == nil {
			db.setHealth(true)
			if attempt > 1 {
				slog.Info("Database connection recovered", "attempt", attempt)
			}
			return nil
		}
		slog.Warn("Database health check failed", "attempt", attempt, "max_attempts", attempts, "error", lastErr)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			db.setHealth(false)
			return fmt.Errorf("%w: %w", ErrDatabaseUnavailable, ctx.Err())
		case <-time.After(delay):
		}
	}

	db.setHealth(false)
	return fmt.Errorf("%w: %w", ErrDatabaseUnavailable, lastErr)
}

func (db *DB) setHealth(ok bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.healthy = ok
	db.lastCheck = time.Now()
}

type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

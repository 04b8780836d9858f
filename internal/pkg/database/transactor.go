package database

import "context"

// Transactor runs fn atomically. Repositories called with the ctx passed to fn
// take part in the same unit of work. A nested call opens a savepoint, so an
// error returned from the inner fn only undoes the inner writes.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// HealthChecker is implemented by stores that can verify their connection.
type HealthChecker interface {
	EnsureHealthy(ctx context.Context) error
}

package company

import "context"

type PolicyRepository interface {
	// Get returns ErrPolicyNotFound when no policy row exists.
	Get(ctx context.Context) (Policy, error)
}

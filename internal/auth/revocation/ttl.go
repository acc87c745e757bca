package revocation

import (
	"fmt"
	"time"

	"rentmeroom/pkg/platform/sentinel"
)

// Clock returns the current time.
type Clock func() time.Time

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}

// TTLUntil returns how long a revocation must be kept for a token expiring at
// expiresAt. Tokens already past expiry need no entry and yield zero.
func TTLUntil(now, expiresAt time.Time) time.Duration {
	if !expiresAt.After(now) {
		return 0
	}
	return expiresAt.Sub(now)
}

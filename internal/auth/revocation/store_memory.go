// Package revocation records logged-out session tokens until they would have
// expired on their own.
package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemoryList keeps revoked jtis in a map. Entries past their TTL are treated
// as absent and pruned lazily on write.
type InMemoryList struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	clock   Clock
}

func NewInMemoryList(clock Clock) *InMemoryList {
	if clock == nil {
		clock = time.Now
	}
	return &InMemoryList{revoked: make(map[string]time.Time), clock: clock}
}

func (l *InMemoryList) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	now := l.clock()
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, exp := range l.revoked {
		if now.After(exp) {
			delete(l.revoked, k)
		}
	}
	l.revoked[jti] = now.Add(ttl)
	return nil
}

func (l *InMemoryList) IsRevoked(_ context.Context, jti string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	exp, ok := l.revoked[jti]
	if !ok {
		return false, nil
	}
	return !l.clock().After(exp), nil
}

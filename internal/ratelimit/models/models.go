package models

import (
	"strings"
	"time"
)

// EndpointClass groups routes that share one per-IP budget.
type EndpointClass string

const (
	// ClassAuth covers signup, OTP confirmation and login.
	ClassAuth EndpointClass = "auth"
	// ClassWrite covers tenant-driven writes such as registering interest.
	ClassWrite EndpointClass = "write"
)

// Limit is a request budget over a sliding window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// RateLimitResult is the outcome of one check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, set only when not allowed
}

// SanitizeKeySegment keeps a caller-controlled segment from spilling into
// neighbouring key segments.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// Key builds the bucket key for a class and client IP.
func Key(class EndpointClass, ip string) string {
	return "rmr:ratelimit:" + string(class) + ":" + SanitizeKeySegment(ip)
}

package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped) and
// services translate them into domain errors.
//
//   - ErrNotFound: no record for the key
//   - ErrConflict: a uniqueness constraint rejected the write (email, tenant+room)
//   - ErrExpired: a pending registration outlived its code
//   - ErrInvalidState: record is in the wrong state for the operation
//   - ErrUnavailable: backing service unreachable
//
// Input validation failures belong in pkg/domain-errors instead.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)

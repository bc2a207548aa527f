package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound             = errors.New("entity not found")
	ErrAlreadyExists        = errors.New("entity already exists")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInvalidExecContext   = errors.New("invalid execution context for query")
	ErrCodeNotFound         = errors.New("invite code not found")
	ErrCodeAlreadyRedeemed  = errors.New("invite code already redeemed")
	ErrIdentityAlreadyBound = errors.New("identity already bound to an organization")
	ErrRateLimited          = errors.New("too many attempts")
)

package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrAlreadyFollowing = errors.New("already following pool")
	ErrPoolInactive     = errors.New("pool is not active")
	ErrRateLimited      = errors.New("rate limited")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidAddress   = errors.New("invalid wallet address")
	ErrLockHeld         = errors.New("lock already held")
)

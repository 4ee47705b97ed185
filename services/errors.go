package services

import "errors"

// Sentinel errors returned by the reading core. Controllers map these onto
// the JSON error envelope; anything else is treated as a storage failure.
var (
	// ErrNotFound covers entities that are absent, inactive, or (for
	// mutations) no longer active, e.g. a completed session.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the entity exists but belongs to another user,
	// or the caller lacks the required relationship.
	ErrForbidden = errors.New("forbidden")
	// ErrAlreadyUnlocked means a reward was already purchased by this user.
	ErrAlreadyUnlocked = errors.New("reward already unlocked")
	// ErrInsufficientPoints means the balance cannot cover the reward cost.
	ErrInsufficientPoints = errors.New("insufficient points")
)

package subscription

import "errors"

var (
	ErrPlanNotFound     = errors.New("subscription plan not found")
	ErrNotSubscribable  = errors.New("plan is not available for subscription")
	ErrMissingUserID    = errors.New("user ID is required")
	ErrStoreUnavailable = errors.New("subscription store unavailable")
)

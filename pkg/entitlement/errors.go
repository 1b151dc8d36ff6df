package entitlement

import "errors"

var (
	ErrUnknownFeature   = errors.New("unknown feature key")
	ErrInvalidCatalog   = errors.New("invalid entitlement catalog configuration")
	ErrPlanNotFound     = errors.New("entitlement plan not found")
	ErrResolutionFailed = errors.New("failed to resolve remote entitlements")
	ErrAccountingFailed = errors.New("failed to record feature usage")

	ErrNoPrincipal           = errors.New("principal is required")
	ErrPrincipalNotInContext = errors.New("principal not found in context")
)

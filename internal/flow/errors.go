package flow

import "errors"

var (
	// ErrStaleResponse is returned when a newer submission superseded this one
	ErrStaleResponse = errors.New("response superseded by a newer submission")

	// ErrSelectionCancelled is returned when the user dismisses the candidate chooser
	ErrSelectionCancelled = errors.New("candidate selection cancelled")

	// ErrGeocodeFailed is returned when the address could not be turned into coordinates
	ErrGeocodeFailed = errors.New("address could not be converted to coordinates")

	// ErrLocationRequired is returned when neither coordinates nor an address were given
	ErrLocationRequired = errors.New("coordinates or an address are required")

	// ErrEmptyBasket is returned when the basket text has no items
	ErrEmptyBasket = errors.New("basket is empty")

	// ErrResolutionLoop is returned when substituted names keep failing to resolve
	ErrResolutionLoop = errors.New("basket still has unresolved items after repeated selection")

	// ErrNoPlans is returned when selecting before any plans were generated
	ErrNoPlans = errors.New("no plans have been generated")

	// ErrPlanNotFound is returned when the requested plan type is not among the results
	ErrPlanNotFound = errors.New("plan not found in results")
)

package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrProductNotFound is returned when no catalog product resembles the item
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrGeocodeNotFound is returned when no query variant resolves to coordinates
	ErrGeocodeNotFound = errors.New("address could not be geocoded")

	// ErrGeocoderUnavailable is returned when the local search API is not configured or fails
	ErrGeocoderUnavailable = errors.New("geocoder unavailable")

	// ErrUpstreamFailure is returned when an upstream HTTP API request fails
	ErrUpstreamFailure = errors.New("upstream API request failed")

	// ErrCatalogUnavailable is returned when the product catalog cannot be queried
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

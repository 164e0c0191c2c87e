package domain

import "errors"

var (
	// ErrMissingConfig is returned when a credential required by the requested stage is absent
	ErrMissingConfig = errors.New("missing required configuration")

	// ErrInvalidConfig is returned when a configuration value is present but unusable
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrProviderFailure is returned when a review provider request fails
	ErrProviderFailure = errors.New("review provider request failed")

	// ErrBusinessNotFound is returned when the secondary provider has no business for a restaurant
	ErrBusinessNotFound = errors.New("business not found")

	// ErrMissingStageInput is returned when a stage runs before the stage that produces its input
	ErrMissingStageInput = errors.New("stage input file not found")

	// ErrUnknownStage is returned for a sub-operation the dispatcher does not know
	ErrUnknownStage = errors.New("unknown pipeline stage")

	// ErrPipelineLocked is returned when another run holds the data directory lock
	ErrPipelineLocked = errors.New("pipeline is already running")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)

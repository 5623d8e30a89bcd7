package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")

	// Fetch errors. A transient failure (network, timeout, 5xx) is retried
	// per the configured retry policy and escalates to a permanent failure
	// once attempts are exhausted. A malformed page payload is retried the
	// same way rather than treated as empty data.
	ErrTransientFetch    = fmt.Errorf("transient fetch failure")
	ErrPermanentFetch    = fmt.Errorf("fetch failed after retries")
	ErrMalformedResponse = fmt.Errorf("malformed response payload")

	// Sync errors
	ErrPlaylistProcessing = fmt.Errorf("playlist processing failed")
	ErrSyncInProgress     = fmt.Errorf("sync already in progress for user")
	ErrPersistence        = fmt.Errorf("snapshot persistence failed")
	ErrSnapshotNotFound   = fmt.Errorf("snapshot not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

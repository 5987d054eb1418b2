package forecast

import "errors"

var (
	// ErrOracle wraps every failure of the forecast service.
	ErrOracle = errors.New("forecast: oracle error")
	// ErrNoCredential is returned when no API key is configured.
	ErrNoCredential = errors.New("forecast: no API key configured")
	// ErrInsufficientHistory is returned for analyses with fewer than two readings.
	ErrInsufficientHistory = errors.New("forecast: at least 2 readings are required")
	// ErrMalformedResponse is returned when the oracle text is not the expected JSON.
	ErrMalformedResponse = errors.New("forecast: malformed response")
)

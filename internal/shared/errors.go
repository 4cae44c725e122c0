package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// API and resource errors
	ErrAPIRequest        = fmt.Errorf("API request failed")
	ErrHouseholdNotFound = fmt.Errorf("household not found")
	ErrTonieNotFound     = fmt.Errorf("creative tonie not found")
	ErrPresetNotFound    = fmt.Errorf("preset not found")
	ErrPresetExists      = fmt.Errorf("preset already exists")
	ErrNoAudioFiles      = fmt.Errorf("no audio files found")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

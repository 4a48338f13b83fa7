package places

import "errors"

var (
	// ErrMissingAPIKey indicates the client was built without an API key
	ErrMissingAPIKey = errors.New("places.missing_api_key")

	// ErrLookupFailed indicates the Places API rejected or failed a call
	ErrLookupFailed = errors.New("places.lookup_failed")

	// ErrPlaceNotFound indicates the place ID resolved to nothing
	ErrPlaceNotFound = errors.New("places.place_not_found")
)

package scheduling

import "errors"

// Sentinel errors returned by the scheduling service. Handlers map these
// onto HTTP statuses; anything else surfaces as an internal error.
var (
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidFormat    = errors.New("invalid date or time format")
	ErrInvalidStatus    = errors.New("invalid appointment status")
	ErrNotFound         = errors.New("appointment not found")
	ErrTimeConflict     = errors.New("provider already booked at the requested time")
	ErrProviderNotFound = errors.New("provider not found")
	ErrProviderInactive = errors.New("provider is not accepting appointments")
)

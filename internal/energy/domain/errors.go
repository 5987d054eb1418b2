package energy

import "errors"

var (
	// ErrEmptyID is returned when an entity id is empty.
	ErrEmptyID = errors.New("energy: empty id")
	// ErrEmptyName is returned when a meter or sub-meter has no name.
	ErrEmptyName = errors.New("energy: empty name")
	// ErrInvalidMonth is returned when a date is not a YYYY-MM month.
	ErrInvalidMonth = errors.New("energy: invalid month")
	// ErrMeterNotFound is returned when a reading references an unknown meter.
	ErrMeterNotFound = errors.New("energy: meter not found")
	// ErrSubMeterNotFound is returned when a sub-reading references an unknown sub-meter.
	ErrSubMeterNotFound = errors.New("energy: sub-meter not found")
	// ErrReadingNotFound is returned when a reading id is unknown.
	ErrReadingNotFound = errors.New("energy: reading not found")
	// ErrInvalidKwh is returned when a sub-reading has no consumption.
	ErrInvalidKwh = errors.New("energy: kwh must be positive")
	// ErrNoValidRows is returned when an import batch has nothing to keep.
	ErrNoValidRows = errors.New("energy: no valid rows")
)

package energy

import "time"

// Meter is a primary, billed electricity supply point.
type Meter struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	CreatedAt int64  `json:"createdAt"`
}

// Validate checks meter invariants.
func (m Meter) Validate() error {
	if m.ID == "" {
		return ErrEmptyID
	}
	if m.Name == "" {
		return ErrEmptyName
	}
	return nil
}

// SubMeter is a secondary, unbilled measurement point.
type SubMeter struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

// Validate checks sub-meter invariants.
func (m SubMeter) Validate() error {
	if m.ID == "" {
		return ErrEmptyID
	}
	if m.Name == "" {
		return ErrEmptyName
	}
	return nil
}

// EpochMillis converts t to the millisecond timestamp used by CreatedAt.
func EpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}

package energy

// Reading is one month of grid/solar consumption and cost for a Meter.
type Reading struct {
	ID       string   `json:"id"`
	MeterID  string   `json:"meterId"`
	Date     string   `json:"date"`
	Kwh      float64  `json:"kwh"`
	SolarKwh *float64 `json:"solarKwh,omitempty"`
	Cost     float64  `json:"cost"`
	Notes    string   `json:"notes"`
}

// Solar returns the solar production, 0 when unset.
func (r Reading) Solar() float64 {
	if r.SolarKwh == nil {
		return 0
	}
	return *r.SolarKwh
}

// HasSolar reports whether the reading carries its own nonzero solar figure.
func (r Reading) HasSolar() bool {
	return r.Solar() != 0
}

// Validate checks reading invariants.
func (r Reading) Validate() error {
	if r.ID == "" || r.MeterID == "" {
		return ErrEmptyID
	}
	if !IsMonth(r.Date) {
		return ErrInvalidMonth
	}
	return nil
}

// Float returns a pointer to v, for optional fields.
func Float(v float64) *float64 {
	return &v
}

// SubReading is one month of consumption and computed cost for a SubMeter.
type SubReading struct {
	ID             string  `json:"id"`
	SubMeterID     string  `json:"subMeterId"`
	Date           string  `json:"date"`
	Kwh            float64 `json:"kwh"`
	CalculatedCost float64 `json:"calculatedCost"`
	PriceUsed      float64 `json:"priceUsed"`
}

// NewSubReading builds a sub-reading deriving the price used from cost and kwh.
func NewSubReading(id, subMeterID, date string, kwh, cost float64) SubReading {
	price := 0.0
	if kwh > 0 {
		price = cost / kwh
	}
	return SubReading{
		ID:             id,
		SubMeterID:     subMeterID,
		Date:           date,
		Kwh:            kwh,
		CalculatedCost: cost,
		PriceUsed:      price,
	}
}

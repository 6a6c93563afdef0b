package model

// FlightRecord is a flight a user tracks along with the last price seen for it.
// FlightID is the storage key and is not expected to change once assigned.
type FlightRecord struct {
	FlightID    string   `json:"flight_id"`
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	LatestPrice *float64 `json:"latest_price,omitempty"`
	UserEmail   string   `json:"user_email"`
}

// SameFlight reports whether both records describe the same stored entity.
func (f FlightRecord) SameFlight(other FlightRecord) bool {
	return f.FlightID == other.FlightID
}

func (f FlightRecord) HasPrice() bool {
	return f.LatestPrice != nil
}

func (f FlightRecord) Price() (float64, bool) {
	if f.LatestPrice == nil {
		return 0, false
	}
	return *f.LatestPrice, true
}

// WithPrice returns a copy of the record carrying price as its latest price.
func (f FlightRecord) WithPrice(price float64) FlightRecord {
	f.LatestPrice = &price
	return f
}

package repository

import (
	"github.com/nategamble/flight_price_checker/flights/internal/model"
)

// PriceUpdate is the outcome of a price write. Announced is the last price
// published for the flight, nil when none was.
type PriceUpdate struct {
	Previous  model.FlightRecord
	Updated   model.FlightRecord
	Announced *float64
}

// NeedsPublish is true while the stored price differs from the announced one.
// A publish that failed leaves it true for the next write of the same price.
func (u PriceUpdate) NeedsPublish() bool {
	latest, ok := u.Updated.Price()
	if !ok {
		return false
	}
	return u.Announced == nil || *u.Announced != latest
}

func (u PriceUpdate) Message() model.QueueMsgPriceUpdated {
	return model.NewQueueMsgPriceUpdated(u.Updated, u.Announced)
}

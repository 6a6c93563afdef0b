package model

type QueueMsgPriceUpdated struct {
	FlightID      string   `json:"flight_id"`
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	UserEmail     string   `json:"user_email"`
	PreviousPrice *float64 `json:"previous_price"`
	LatestPrice   float64  `json:"latest_price"`
}

// NewQueueMsgPriceUpdated announces the latest price of updated; previousPrice
// is the price announced before it, nil for the first announcement.
func NewQueueMsgPriceUpdated(updated FlightRecord, previousPrice *float64) QueueMsgPriceUpdated {
	latest, _ := updated.Price()
	return QueueMsgPriceUpdated{
		FlightID:      updated.FlightID,
		Origin:        updated.Origin,
		Destination:   updated.Destination,
		UserEmail:     updated.UserEmail,
		PreviousPrice: previousPrice,
		LatestPrice:   latest,
	}
}

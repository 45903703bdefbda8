package models

// Billing holds the tariff applied when a reservation finishes.
// Amounts are integer currency units.
type Billing struct {
	RatePerMinute        int64
	PenaltyPerPeriod     int64
	PenaltyPeriodMinutes int
	// NoShowBilling charges the planned duration when a reservation is
	// finished without the car ever being parked.
	NoShowBilling bool
}

func DefaultBilling() Billing {
	return Billing{
		RatePerMinute:        100,
		PenaltyPerPeriod:     500,
		PenaltyPeriodMinutes: 5,
		NoShowBilling:        true,
	}
}

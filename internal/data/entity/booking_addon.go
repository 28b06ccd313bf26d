package entity

// BookingAddon is a catalog add-on attached to a booking. PriceAtBooking is
// a snapshot and does not follow later catalog price changes.
type BookingAddon struct {
	AddonID        string `json:"addon_id" validate:"required"`
	AddonName      string `json:"addon_name"`
	Quantity       int    `json:"quantity" validate:"min=1"`
	PriceAtBooking int64  `json:"price_at_booking" validate:"gte=0"`
}

func (a BookingAddon) Subtotal() int64 {
	return int64(a.Quantity) * a.PriceAtBooking
}

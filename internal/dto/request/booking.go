package request

import "time"

type AddonLine struct {
	AddonID  string `json:"addon_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1,max=100"`
}

// CreateBookingRequest carries no prices. The service prices the booking
// from the catalog.
type CreateBookingRequest struct {
	CustomerName     string          `json:"customer_name" validate:"required,max=200"`
	CustomerWhatsApp string          `json:"customer_whatsapp" validate:"required,max=32"`
	CustomerCategory string          `json:"customer_category" validate:"max=100"`
	ServiceID        string          `json:"service_id" validate:"required"`
	Date             time.Time       `json:"date" validate:"required"`
	Notes            *string         `json:"notes,omitempty"`
	LocationLink     *string         `json:"location_link,omitempty" validate:"omitempty,url"`
	Addons           []AddonLine     `json:"addons,omitempty" validate:"dive"`
	CouponCode       *string         `json:"coupon_code,omitempty" validate:"omitempty,max=32"`
	PhotographerID   *string         `json:"photographer_id,omitempty"`
	DownPayment      *PaymentRequest `json:"down_payment,omitempty"`
}

type RescheduleBookingRequest struct {
	Date   time.Time `json:"date" validate:"required"`
	Reason *string   `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type PaymentRequest struct {
	Date           time.Time `json:"date"`
	Amount         int64     `json:"amount" validate:"gt=0"`
	Note           string    `json:"note" validate:"max=500"`
	ProofFilename  *string   `json:"proof_filename,omitempty"`
	ProofURL       *string   `json:"proof_url,omitempty" validate:"omitempty,url"`
	StorageBackend string    `json:"storage_backend,omitempty" validate:"omitempty,oneof=local b2"`
}

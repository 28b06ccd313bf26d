package entity

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingStatusActive      BookingStatus = "Active"
	BookingStatusCompleted   BookingStatus = "Completed"
	BookingStatusCancelled   BookingStatus = "Cancelled"
	BookingStatusRescheduled BookingStatus = "Rescheduled"

	// BookingStatusUnknown stands in for a stored value that matches none of
	// the above. It is never written back.
	BookingStatusUnknown BookingStatus = "Unknown"
)

// ParseBookingStatus matches s case-insensitively against the known
// statuses and falls back to BookingStatusUnknown.
func ParseBookingStatus(s string) BookingStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return BookingStatusActive
	case "completed":
		return BookingStatusCompleted
	case "cancelled", "canceled":
		return BookingStatusCancelled
	case "rescheduled":
		return BookingStatusRescheduled
	default:
		return BookingStatusUnknown
	}
}

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusActive, BookingStatusCompleted, BookingStatusCancelled, BookingStatusRescheduled:
		return true
	}
	return false
}

// BlocksSlot reports whether a booking in this status occupies its time slot.
func (s BookingStatus) BlocksSlot() bool {
	return s == BookingStatusActive || s == BookingStatusRescheduled
}

// SlotBlockingStatuses lists the statuses that occupy a slot.
func SlotBlockingStatuses() []BookingStatus {
	return []BookingStatus{BookingStatusActive, BookingStatusRescheduled}
}

type Customer struct {
	Name      string  `json:"name" validate:"required,max=200"`
	WhatsApp  string  `json:"whatsapp" validate:"required,max=32"`
	Category  string  `json:"category" validate:"max=100"`
	ServiceID *string `json:"serviceId,omitempty"`
}

type BookingDetails struct {
	Date         time.Time `json:"date" validate:"required"`
	Notes        *string   `json:"notes,omitempty"`
	LocationLink *string   `json:"location_link,omitempty" validate:"omitempty,url"`
}

type Finance struct {
	TotalPrice       int64     `json:"total_price" validate:"gte=0"`
	Payments         []Payment `json:"payments" validate:"dive"`
	ServiceBasePrice *int64    `json:"service_base_price,omitempty"`
	BaseDiscount     *int64    `json:"base_discount,omitempty"`
	AddonsTotal      *int64    `json:"addons_total,omitempty"`
	CouponDiscount   *int64    `json:"coupon_discount,omitempty"`
	CouponCode       *string   `json:"coupon_code,omitempty"`
}

// Paid sums every recorded payment.
func (f Finance) Paid() int64 {
	var paid int64
	for _, p := range f.Payments {
		paid += p.Amount
	}
	return paid
}

// Balance is what the customer still owes. Negative when overpaid.
func (f Finance) Balance() int64 {
	return f.TotalPrice - f.Paid()
}

func (f Finance) Overpaid() bool {
	return f.Paid() > f.TotalPrice
}

// Booking is the aggregate root. Payments, Addons and RescheduleHistory are
// owned by it and removed with it.
type Booking struct {
	ID                string              `json:"id" validate:"required,max=64"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	Status            BookingStatus       `json:"status" validate:"required,oneof=Active Completed Cancelled Rescheduled"`
	Customer          Customer            `json:"customer"`
	Booking           BookingDetails      `json:"booking"`
	Finance           Finance             `json:"finance"`
	PhotographerID    *string             `json:"photographer_id,omitempty"`
	Addons            []BookingAddon      `json:"addons,omitempty" validate:"dive"`
	RescheduleHistory []RescheduleHistory `json:"reschedule_history,omitempty"`
}

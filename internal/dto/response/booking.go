package response

import (
	"time"

	"studio-booking/internal/data/entity"
	"studio-booking/pkg/utils"
)

type FinanceResponse struct {
	TotalPrice       int64   `json:"total_price"`
	Paid             int64   `json:"paid"`
	Balance          int64   `json:"balance"`
	Overpaid         bool    `json:"overpaid"`
	ServiceBasePrice *int64  `json:"service_base_price,omitempty"`
	BaseDiscount     *int64  `json:"base_discount,omitempty"`
	AddonsTotal      *int64  `json:"addons_total,omitempty"`
	CouponDiscount   *int64  `json:"coupon_discount,omitempty"`
	CouponCode       *string `json:"coupon_code,omitempty"`
}

type BookingResponse struct {
	ID                string                     `json:"id"`
	InvoiceNumber     string                     `json:"invoice_number"`
	Status            entity.BookingStatus       `json:"status"`
	Customer          entity.Customer            `json:"customer"`
	Booking           entity.BookingDetails      `json:"booking"`
	Finance           FinanceResponse            `json:"finance"`
	Payments          []entity.Payment           `json:"payments"`
	Addons            []entity.BookingAddon      `json:"addons,omitempty"`
	RescheduleHistory []entity.RescheduleHistory `json:"reschedule_history,omitempty"`
	PhotographerID    *string                    `json:"photographer_id,omitempty"`
	CreatedAt         time.Time                  `json:"created_at"`
	UpdatedAt         time.Time                  `json:"updated_at"`
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	payments := b.Finance.Payments
	if payments == nil {
		payments = []entity.Payment{}
	}

	return BookingResponse{
		ID:            b.ID,
		InvoiceNumber: utils.GenerateInvoiceNumber(b.ID, b.CreatedAt),
		Status:        b.Status,
		Customer:      b.Customer,
		Booking:       b.Booking,
		Finance: FinanceResponse{
			TotalPrice:       b.Finance.TotalPrice,
			Paid:             b.Finance.Paid(),
			Balance:          b.Finance.Balance(),
			Overpaid:         b.Finance.Overpaid(),
			ServiceBasePrice: b.Finance.ServiceBasePrice,
			BaseDiscount:     b.Finance.BaseDiscount,
			AddonsTotal:      b.Finance.AddonsTotal,
			CouponDiscount:   b.Finance.CouponDiscount,
			CouponCode:       b.Finance.CouponCode,
		},
		Payments:          payments,
		Addons:            b.Addons,
		RescheduleHistory: b.RescheduleHistory,
		PhotographerID:    b.PhotographerID,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

func BookingsToResponse(bookings []*entity.Booking) []BookingResponse {
	out := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = BookingToResponse(b)
	}
	return out
}

package request

import "time"

type PaginatedRequest struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"per_page" validate:"min=1,max=500"`
}

func (p PaginatedRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

func (p PaginatedRequest) Limit() int {
	if p.PerPage < 1 {
		return 50
	}
	if p.PerPage > 500 {
		return 500
	}
	return p.PerPage
}

// ListBookingsRequest filters the booking list. Unset fields do not filter.
type ListBookingsRequest struct {
	PaginatedRequest
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Status    string     `json:"status,omitempty" validate:"omitempty,oneof=Active Completed Cancelled Rescheduled"`
}

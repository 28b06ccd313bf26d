package entity

import "time"

// RescheduleHistory is append-only.
type RescheduleHistory struct {
	ID            int64     `json:"id"`
	OldDate       time.Time `json:"old_date"`
	NewDate       time.Time `json:"new_date"`
	RescheduledAt time.Time `json:"rescheduled_at"`
	Reason        *string   `json:"reason,omitempty"`
}

package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ==================== IDS ====================

func GenerateID() string {
	return uuid.New().String()
}

func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ==================== INVOICE NUMBER ====================

// GenerateInvoiceNumber derives a human readable reference from a booking id.
// Format: INV-YYYYMMDD-XXXXXXXX
func GenerateInvoiceNumber(bookingID string, createdAt time.Time) string {
	short := bookingID
	if parsed, err := uuid.Parse(bookingID); err == nil {
		short = parsed.String()[:8]
	} else if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("INV-%s-%s", createdAt.UTC().Format("20060102"), short)
}

package repository

import (
	"math"
	"strconv"
	"strings"
	"time"

	"studio-booking/internal/data/entity"
	"studio-booking/pkg/database"
)

// Rows are scanned into []any and then coerced field by field, so a legacy
// or hand-edited row degrades to zero values instead of failing a listing.

func safeString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return database.FormatTime(val)
	default:
		return ""
	}
}

// safeStringPtr treats NULL and blank strings as absent.
func safeStringPtr(v any) *string {
	s := safeString(v)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func safeInt(v any) int64 {
	switch val := v.(type) {
	case nil:
		return 0
	case int64:
		return val
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0
		}
		return int64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		return parseIntString(val)
	case []byte:
		return parseIntString(string(val))
	default:
		return 0
	}
}

func parseIntString(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(f)
}

func safeIntPtr(v any) *int64 {
	if v == nil {
		return nil
	}
	n := safeInt(v)
	return &n
}

func safeBool(v any) bool {
	return safeInt(v) != 0
}

func safeTime(v any) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val.UTC()
	case string:
		t, _ := database.ParseTime(val)
		return t
	case []byte:
		t, _ := database.ParseTime(string(val))
		return t
	case int64:
		return time.Unix(val, 0).UTC()
	default:
		return time.Time{}
	}
}

func normalizeStatus(v any) entity.BookingStatus {
	return entity.ParseBookingStatus(safeString(v))
}

// scanValues allocates n destinations for Scan.
func scanValues(n int) ([]any, []any) {
	vals := make([]any, n)
	ptrs := make([]any, n)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	return vals, ptrs
}

// placeholders returns "?, ?, ?" for n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

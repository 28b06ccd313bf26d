package entity

import "time"

type AuditLog struct {
	ID        int64          `json:"id"`
	Actor     string         `json:"actor"`
	Entity    string         `json:"entity"`
	EntityID  string         `json:"entity_id"`
	Action    string         `json:"action"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

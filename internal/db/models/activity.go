package models

import "time"

// Activity is one entry of a user's activity log
type Activity struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	ActivityType string    `json:"activity_type"`
	Description  string    `json:"description"`
	IPAddress    string    `json:"ip_address"`
	CreatedAt    time.Time `json:"created_at"`
}

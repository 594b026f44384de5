package models

import "time"

type Movie struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Genre         string    `json:"genre"`
	ReleaseYear   int       `json:"release_year"`
	VideoPath     string    `json:"video_path,omitempty"`
	ThumbnailPath string    `json:"thumbnail_path,omitempty"`
	SubtitlePath  string    `json:"subtitle_path,omitempty"`
	FileSize      int64     `json:"file_size"`
	Duration      float64   `json:"duration"` // seconds, 0 when unknown
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

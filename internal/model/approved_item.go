package model

import "time"

// ApprovedItem is a video a guardian has approved for their children.
type ApprovedItem struct {
	ID              int       `db:"id"               json:"id"`
	GuardianID      int       `db:"guardian_id"      json:"guardian_id"`
	VideoID         string    `db:"video_id"         json:"video_id"`
	Title           string    `db:"title"            json:"title"`
	ThumbnailURL    *string   `db:"thumbnail_url"    json:"thumbnail_url,omitempty"`
	DurationSeconds *int      `db:"duration_seconds" json:"duration_seconds,omitempty"`
	CreatedAt       time.Time `db:"created_at"       json:"created_at"`
}

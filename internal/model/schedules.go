package model

import "time"

// ScheduleRecord places one approved item on one calendar day for one child.
type ScheduleRecord struct {
	ID             int        `db:"id" json:"id"`
	ChildID        int        `db:"child_id" json:"child_id"`
	ApprovedItemID int        `db:"approved_item_id" json:"approved_item_id"`
	ScheduledDate  Date       `db:"scheduled_date" json:"scheduled_date"`
	OriginalDate   Date       `db:"original_date" json:"original_date"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	IsWatched      bool       `db:"is_watched" json:"is_watched"`
	WatchedAt      *time.Time `db:"watched_at" json:"watched_at"`
	CarriedOver    bool       `db:"carried_over" json:"carried_over"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// ScheduledItem is a ScheduleRecord joined with the display metadata of its approved item.
type ScheduledItem struct {
	ScheduleRecord
	VideoID         string  `db:"video_id" json:"video_id"`
	Title           string  `db:"title" json:"title"`
	ThumbnailURL    *string `db:"thumbnail_url" json:"thumbnail_url"`
	DurationSeconds *int    `db:"duration_seconds" json:"duration_seconds"`
}

// Watermark is the last calendar day closed out by carryover for a child.
type Watermark struct {
	ChildID       int       `db:"child_id" json:"child_id"`
	ClosedThrough Date      `db:"closed_through" json:"closed_through"`
	Trigger       string    `db:"trigger_name" json:"trigger"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

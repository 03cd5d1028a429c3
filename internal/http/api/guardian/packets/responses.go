package packets

import (
	"time"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
)

type TokenResponse struct {
	Token string `json:"token"`
}

type ProfileResponse struct {
	ID        int     `json:"id"`
	Email     string  `json:"email"`
	Name      *string `json:"name"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type ChildResponse struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type ScheduleRecordResponse struct {
	ID             int     `json:"id"`
	ChildID        int     `json:"child_id"`
	ApprovedItemID int     `json:"approved_item_id"`
	ScheduledDate  string  `json:"scheduled_date"`
	OriginalDate   string  `json:"original_date"`
	IsActive       bool    `json:"is_active"`
	IsWatched      bool    `json:"is_watched"`
	WatchedAt      *string `json:"watched_at"`
	CarriedOver    bool    `json:"carried_over"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// ScheduledItemResponse is a record plus the approved item's display metadata.
type ScheduledItemResponse struct {
	ScheduleRecordResponse
	VideoID         string  `json:"video_id"`
	Title           string  `json:"title"`
	ThumbnailURL    *string `json:"thumbnail_url"`
	DurationSeconds *int    `json:"duration_seconds"`
}

func NewScheduleRecordResponse(r model.ScheduleRecord) ScheduleRecordResponse {
	var watchedAt *string
	if r.WatchedAt != nil {
		s := r.WatchedAt.Format(time.RFC3339)
		watchedAt = &s
	}
	return ScheduleRecordResponse{
		ID:             r.ID,
		ChildID:        r.ChildID,
		ApprovedItemID: r.ApprovedItemID,
		ScheduledDate:  r.ScheduledDate.String(),
		OriginalDate:   r.OriginalDate.String(),
		IsActive:       r.IsActive,
		IsWatched:      r.IsWatched,
		WatchedAt:      watchedAt,
		CarriedOver:    r.CarriedOver,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      r.UpdatedAt.Format(time.RFC3339),
	}
}

func NewScheduledItemResponse(it model.ScheduledItem) ScheduledItemResponse {
	return ScheduledItemResponse{
		ScheduleRecordResponse: NewScheduleRecordResponse(it.ScheduleRecord),
		VideoID:                it.VideoID,
		Title:                  it.Title,
		ThumbnailURL:           it.ThumbnailURL,
		DurationSeconds:        it.DurationSeconds,
	}
}

func NewScheduleRecordResponses(recs []model.ScheduleRecord) []ScheduleRecordResponse {
	out := make([]ScheduleRecordResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, NewScheduleRecordResponse(r))
	}
	return out
}

func NewScheduledItemResponses(items []model.ScheduledItem) []ScheduledItemResponse {
	out := make([]ScheduledItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, NewScheduledItemResponse(it))
	}
	return out
}

package packets

import (
	guardianpackets "github.com/Nixie-Tech-LLC/kidcurate/internal/http/api/guardian/packets"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/scheduling"
)

// RunCarryoverRequest names the day to close out.
type RunCarryoverRequest struct {
	Date string `json:"date" binding:"required"`
}

type PreviewQuery struct {
	Date    string `form:"date" binding:"required"`
	ChildID *int   `form:"child_id"`
}

type CarryoverResponse struct {
	Date       string `json:"date"`
	TargetDate string `json:"target_date"`
	Children   int    `json:"children"`
	Found      int    `json:"found"`
	Carried    int    `json:"carried"`
	Merged     int    `json:"merged"`
	Stale      int    `json:"stale"`
	Failed     int    `json:"failed"`
}

func NewCarryoverResponse(r scheduling.BatchResult) CarryoverResponse {
	return CarryoverResponse{
		Date:       r.Date.String(),
		TargetDate: r.TargetDate.String(),
		Children:   r.Children,
		Found:      r.Found,
		Carried:    r.Carried,
		Merged:     r.Merged,
		Stale:      r.Stale,
		Failed:     r.Failed,
	}
}

type PreviewEntryResponse struct {
	Record      guardianpackets.ScheduleRecordResponse `json:"record"`
	TargetDate  string                                 `json:"target_date"`
	WouldCreate bool                                   `json:"would_create"`
}

type PreviewResponse struct {
	Date    string                 `json:"date"`
	ChildID *int                   `json:"child_id,omitempty"`
	Entries []PreviewEntryResponse `json:"entries"`
}

func NewPreviewResponse(date string, childID *int, entries []scheduling.PreviewEntry) PreviewResponse {
	out := PreviewResponse{Date: date, ChildID: childID, Entries: make([]PreviewEntryResponse, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, PreviewEntryResponse{
			Record:      guardianpackets.NewScheduleRecordResponse(e.Record),
			TargetDate:  e.TargetDate.String(),
			WouldCreate: e.WouldCreate,
		})
	}
	return out
}

type WatermarkResponse struct {
	ChildID       int    `json:"child_id"`
	ClosedThrough string `json:"closed_through"`
	Trigger       string `json:"trigger"`
	UpdatedAt     string `json:"updated_at"`
}

package packets

import (
	guardianpackets "github.com/Nixie-Tech-LLC/kidcurate/internal/http/api/guardian/packets"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
)

type ScheduleQuery struct {
	Date string `form:"date"`
}

// ScheduleResponse is what a child's device renders for one day.
type ScheduleResponse struct {
	ChildID int                                     `json:"child_id"`
	Date    string                                  `json:"date"`
	Items   []guardianpackets.ScheduledItemResponse `json:"items"`
}

func NewScheduleResponse(childID int, date model.Date, items []model.ScheduledItem) ScheduleResponse {
	return ScheduleResponse{
		ChildID: childID,
		Date:    date.String(),
		Items:   guardianpackets.NewScheduledItemResponses(items),
	}
}

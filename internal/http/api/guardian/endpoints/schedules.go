package endpoints

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/db"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/http/api"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/http/api/guardian/packets"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/scheduling"
)

type ScheduleController struct {
	store    db.Store
	schedule *scheduling.ScheduleService
}

func NewScheduleController(store db.Store, schedule *scheduling.ScheduleService) *ScheduleController {
	return &ScheduleController{store: store, schedule: schedule}
}

func ScheduleModule(store db.Store, schedule *scheduling.ScheduleService) api.Module {
	ctl := NewScheduleController(store, schedule)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/children", ctl.listChildren)

		c.GET("/schedules", ctl.listSchedules)
		c.POST("/schedules", ctl.createSchedule)
		c.GET("/schedules/history", ctl.scheduleHistory)
		c.DELETE("/schedules/:id", ctl.deleteSchedule)
	})
}

// GET /api/guardian/children
func (s *ScheduleController) listChildren(ctx *gin.Context, guardian *model.Guardian) (any, *api.APIError) {
	children, err := s.store.ListChildrenForGuardian(guardian.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list children"}
	}

	response := make([]packets.ChildResponse, 0, len(children))
	for _, ch := range children {
		response = append(response, packets.ChildResponse{
			ID:        ch.ID,
			Name:      ch.Name,
			CreatedAt: ch.CreatedAt.Format(time.RFC3339),
		})
	}
	return response, nil
}

// POST /api/guardian/schedules
func (s *ScheduleController) createSchedule(ctx *gin.Context, guardian *model.Guardian) (any, *api.APIError) {
	var request packets.CreateScheduleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	date, err := model.ParseDate(request.Date)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "date must be YYYY-MM-DD"}
	}

	created, err := s.schedule.CreateSchedule(ctx.Request.Context(), guardian.ID, request.ApprovedItemIDs, request.ChildIDs, date)
	if err != nil {
		return nil, api.FromError(err, "could not create schedule")
	}
	return packets.NewScheduleRecordResponses(created), nil
}

// GET /api/guardian/schedules?child_id=&date=
func (s *ScheduleController) listSchedules(ctx *gin.Context, guardian *model.Guardian) (any, *api.APIError) {
	var query packets.ListScheduleQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	filter := db.GuardianScheduleFilter{ChildID: query.ChildID}
	if query.Date != "" {
		date, err := model.ParseDate(query.Date)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "date must be YYYY-MM-DD"}
		}
		filter.Date = &date
	}

	items, err := s.schedule.ListSchedule(ctx.Request.Context(), guardian.ID, filter)
	if err != nil {
		return nil, api.FromError(err, "failed to list schedules")
	}
	return packets.NewScheduledItemResponses(items), nil
}

// GET /api/guardian/schedules/history?child_id=&approved_item_id=
func (s *ScheduleController) scheduleHistory(ctx *gin.Context, guardian *model.Guardian) (any, *api.APIError) {
	var query packets.ScheduleHistoryQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	recs, err := s.schedule.History(ctx.Request.Context(), guardian.ID, query.ChildID, query.ApprovedItemID)
	if err != nil {
		return nil, api.FromError(err, "failed to load schedule history")
	}
	return packets.NewScheduleRecordResponses(recs), nil
}

// DELETE /api/guardian/schedules/:id
func (s *ScheduleController) deleteSchedule(ctx *gin.Context, guardian *model.Guardian) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid schedule id"}
	}

	if err := s.schedule.RemoveSchedule(ctx.Request.Context(), guardian.ID, id); err != nil {
		return nil, api.FromError(err, "could not delete schedule")
	}
	return gin.H{"deleted": id}, nil
}

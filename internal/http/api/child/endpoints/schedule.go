package endpoints

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/http/api"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/http/api/child/packets"
	guardianpackets "github.com/Nixie-Tech-LLC/kidcurate/internal/http/api/guardian/packets"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/scheduling"
)

// ChildScheduleModule serves the child-facing read and watch endpoints.
// Children do not authenticate as guardians; only the child id is checked.
func ChildScheduleModule(query *scheduling.QueryService, watch *scheduling.WatchRecorder, now func() time.Time) api.Module {
	ctl := &ScheduleController{query: query, watch: watch, now: now}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/children/:child_id/schedule", ctl.todaysSchedule)
		c.PUBLIC_POST("/children/:child_id/schedule/:id/watched", ctl.markWatched)
	})
}

type ScheduleController struct {
	query *scheduling.QueryService
	watch *scheduling.WatchRecorder
	now   func() time.Time
}

// GET /api/child/children/:child_id/schedule?date=
// date defaults to the server's current day.
func (s *ScheduleController) todaysSchedule(ctx *gin.Context) (any, *api.APIError) {
	childID, err := strconv.Atoi(ctx.Param("child_id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid child id"}
	}

	var query packets.ScheduleQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	date := model.DateOf(s.now())
	if query.Date != "" {
		if date, err = model.ParseDate(query.Date); err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "date must be YYYY-MM-DD"}
		}
	}

	items, err := s.query.GetTodaysSchedule(ctx.Request.Context(), childID, date)
	if err != nil {
		return nil, api.FromError(err, "could not load schedule")
	}
	return packets.NewScheduleResponse(childID, date, items), nil
}

// POST /api/child/children/:child_id/schedule/:id/watched
func (s *ScheduleController) markWatched(ctx *gin.Context) (any, *api.APIError) {
	childID, err := strconv.Atoi(ctx.Param("child_id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid child id"}
	}
	recordID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid schedule id"}
	}

	rec, err := s.watch.MarkWatched(ctx.Request.Context(), recordID, childID)
	if err != nil {
		return nil, api.FromError(err, "could not mark watched")
	}
	return guardianpackets.NewScheduleRecordResponse(rec), nil
}

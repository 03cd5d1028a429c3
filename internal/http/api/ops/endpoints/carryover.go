package endpoints

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/http/api"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/http/api/ops/packets"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/scheduling"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/storage"
)

// CarryoverModule exposes the batch trigger and its read-only diagnostics.
// runner performs the sweep; processor serves the read-only endpoints.
func CarryoverModule(processor *scheduling.Processor, runner storage.BatchRunner) api.Module {
	ctl := &CarryoverController{processor: processor, runner: runner}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/carryover", ctl.runCarryover)
		c.PUBLIC_GET("/carryover/preview", ctl.previewCarryover)
		c.PUBLIC_GET("/carryover/watermarks/:child_id", ctl.getWatermark)
	})
}

type CarryoverController struct {
	processor *scheduling.Processor
	runner    storage.BatchRunner
}

// POST /api/ops/carryover
// date must be a finished day (before today, UTC); anything later is a 400.
func (o *CarryoverController) runCarryover(ctx *gin.Context) (any, *api.APIError) {
	var request packets.RunCarryoverRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	date, err := model.ParseDate(request.Date)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "date must be YYYY-MM-DD"}
	}

	res, err := o.runner.RunBatchCarryover(ctx.Request.Context(), date)
	if err != nil {
		log.Error().Err(err).Str("date", date.String()).Msg("batch carryover request failed")
		return nil, api.FromError(err, "batch carryover failed")
	}
	return packets.NewCarryoverResponse(res), nil
}

// GET /api/ops/carryover/preview?date=&child_id=
func (o *CarryoverController) previewCarryover(ctx *gin.Context) (any, *api.APIError) {
	var query packets.PreviewQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	date, err := model.ParseDate(query.Date)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "date must be YYYY-MM-DD"}
	}

	entries, err := o.processor.Preview(ctx.Request.Context(), date, query.ChildID)
	if err != nil {
		return nil, api.FromError(err, "carryover preview failed")
	}
	return packets.NewPreviewResponse(date.String(), query.ChildID, entries), nil
}

// GET /api/ops/carryover/watermarks/:child_id
func (o *CarryoverController) getWatermark(ctx *gin.Context) (any, *api.APIError) {
	childID, err := strconv.Atoi(ctx.Param("child_id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid child id"}
	}

	w, err := o.processor.Watermark(childID)
	if err != nil {
		return nil, api.FromError(err, "could not load watermark")
	}
	return packets.WatermarkResponse{
		ChildID:       w.ChildID,
		ClosedThrough: w.ClosedThrough.String(),
		Trigger:       w.Trigger,
		UpdatedAt:     w.UpdatedAt.Format(time.RFC3339),
	}, nil
}

package endpoints

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signance/internal/http/api"
	"github.com/Nixie-Tech-LLC/signance/internal/http/api/admin/packets"
	"github.com/Nixie-Tech-LLC/signance/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/signance/internal/model"
	"github.com/Nixie-Tech-LLC/signance/internal/notify"
	"github.com/Nixie-Tech-LLC/signance/internal/schedule"
)

type ScheduleController struct {
	deps Deps
}

// ScheduleModule mounts the /schedules endpoints.
func ScheduleModule(deps Deps) api.Module {
	ctl := &ScheduleController{deps: deps}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/schedules", ctl.listSchedules)
		c.POST("/schedules", ctl.createSchedule)
		c.GET("/schedules/:id", ctl.getSchedule)
		c.PUT("/schedules/:id", ctl.updateSchedule)
		c.DELETE("/schedules/:id", ctl.deleteSchedule)
		c.PATCH("/schedules/:id/toggle", ctl.toggleSchedule)
	})
}

func (s *ScheduleController) listSchedules(ctx *gin.Context) (any, *api.APIError) {
	var f model.ScheduleFilter
	if v := ctx.Query("type"); v != "" {
		f.Type = model.ScheduleType(v)
		if !f.Type.Valid() {
			return nil, api.BadRequest("type must be simple or advanced")
		}
	}
	if v := ctx.Query("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return nil, api.BadRequest("invalid active flag")
		}
		f.ActiveOnly = active
	}

	rules, err := s.deps.Schedules.List(ctx, f)
	if err != nil {
		return nil, api.FromError(err, "list schedules")
	}
	return packets.NewScheduleResponses(rules), nil
}

func (s *ScheduleController) createSchedule(ctx *gin.Context) (any, *api.APIError) {
	var req packets.CreateScheduleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	target, err := schedule.NewTarget(req.MediaID, req.PlaylistID)
	if err != nil {
		return nil, api.FromError(err, "create schedule")
	}

	rule := model.ScheduleRule{
		Target:        target,
		Type:          model.ScheduleType(req.ScheduleType),
		IsActive:      true,
		Priority:      req.Priority,
		IsAllDay:      req.IsAllDay,
		DailyStart:    req.DailyStart,
		DailyEnd:      req.DailyEnd,
		Weekdays:      req.Weekdays,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		SpecificTimes: req.SpecificTimes,
	}
	if rule.Type == "" {
		rule.Type = model.ScheduleSimple
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	created, err := s.deps.Schedules.Create(ctx, rule)
	if err != nil {
		return nil, api.FromError(err, "create schedule")
	}

	log.Info().Int("schedule_id", created.ID).Str("target", model.TargetKind(created.Target)).
		Str("operator", middleware.CurrentOperator(ctx)).Msg("[schedule] created")
	s.deps.notifier().Notify(notify.ScheduleCreated, scheduleEvent(created))
	return api.WithStatus(http.StatusCreated, packets.NewScheduleResponse(created)), nil
}

func (s *ScheduleController) getSchedule(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	rule, err := s.deps.Schedules.Get(ctx, id)
	if err != nil {
		return nil, api.FromError(err, "get schedule")
	}
	return packets.NewScheduleResponse(rule), nil
}

func (s *ScheduleController) updateSchedule(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var req packets.UpdateScheduleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	patch := schedule.Patch{
		MediaID:       req.MediaID,
		PlaylistID:    req.PlaylistID,
		IsActive:      req.IsActive,
		Priority:      req.Priority,
		IsAllDay:      req.IsAllDay,
		DailyStart:    req.DailyStart,
		DailyEnd:      req.DailyEnd,
		Weekdays:      req.Weekdays,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		SpecificTimes: req.SpecificTimes,
	}
	if req.ScheduleType != nil {
		t := model.ScheduleType(*req.ScheduleType)
		patch.Type = &t
	}

	rule, err := s.deps.Schedules.Update(ctx, id, patch)
	if err != nil {
		return nil, api.FromError(err, "update schedule")
	}

	s.deps.notifier().Notify(notify.ScheduleUpdated, scheduleEvent(rule))
	return packets.NewScheduleResponse(rule), nil
}

func (s *ScheduleController) deleteSchedule(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if err := s.deps.Schedules.Delete(ctx, id); err != nil {
		return nil, api.FromError(err, "delete schedule")
	}

	log.Info().Int("schedule_id", id).Str("operator", middleware.CurrentOperator(ctx)).Msg("[schedule] deleted")
	s.deps.notifier().Notify(notify.ScheduleDeleted, map[string]any{"id": id})
	return packets.MessageResponse{Message: "schedule deleted"}, nil
}

func (s *ScheduleController) toggleSchedule(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	rule, err := s.deps.Schedules.Toggle(ctx, id)
	if err != nil {
		return nil, api.FromError(err, "toggle schedule")
	}

	s.deps.notifier().Notify(notify.ScheduleToggled, map[string]any{"id": rule.ID, "is_active": rule.IsActive})
	return packets.NewScheduleResponse(rule), nil
}

func scheduleEvent(r model.ScheduleRule) map[string]any {
	payload := map[string]any{
		"id":            r.ID,
		"schedule_type": r.Type,
		"is_active":     r.IsActive,
		"priority":      r.Priority,
	}
	switch t := r.Target.(type) {
	case model.MediaTarget:
		payload["media_id"] = t.MediaID
	case model.PlaylistTarget:
		payload["playlist_id"] = t.PlaylistID
	}
	return payload
}

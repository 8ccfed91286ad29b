package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signance/internal/errs"
	"github.com/Nixie-Tech-LLC/signance/internal/http/api"
	"github.com/Nixie-Tech-LLC/signance/internal/http/api/admin/packets"
	"github.com/Nixie-Tech-LLC/signance/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/signance/internal/media"
	"github.com/Nixie-Tech-LLC/signance/internal/model"
	"github.com/Nixie-Tech-LLC/signance/internal/notify"
	"github.com/Nixie-Tech-LLC/signance/internal/storage"
)

type MediaController struct {
	deps Deps
}

// MediaModule mounts the /media endpoints.
func MediaModule(deps Deps) api.Module {
	ctl := &MediaController{deps: deps}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/media", ctl.listMedia)
		c.POST("/media", ctl.uploadMedia)
		c.GET("/media/:id", ctl.getMedia)
		c.PUT("/media/:id", ctl.updateMedia)
		c.DELETE("/media/:id", ctl.deleteMedia)

		c.GET("/media/:id/playlists", ctl.listPlaylists)
		c.GET("/media/:id/schedules", ctl.listSchedules)
	})
}

func (m *MediaController) listMedia(ctx *gin.Context) (any, *api.APIError) {
	limit, offset, apiErr := api.Page(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	all, err := m.deps.Catalog.List(ctx, limit, offset)
	if err != nil {
		return nil, api.FromError(err, "list media")
	}
	return all, nil
}

func (m *MediaController) uploadMedia(ctx *gin.Context) (any, *api.APIError) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return nil, api.BadRequest("file is required")
	}

	var form packets.UploadMediaForm
	if err := ctx.ShouldBind(&form); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	mediaType := model.MediaType(form.MediaType)
	if mediaType == "" {
		mediaType = model.MediaType(storage.MediaTypeOf(fh.Filename))
	}
	if !mediaType.Valid() {
		return nil, api.BadRequest("file must be an image or a video")
	}
	if form.Duration == nil && mediaType == model.MediaImage {
		return nil, api.BadRequest("duration is required for images")
	}

	name := form.Filename
	if name == "" {
		name = fh.Filename
	}

	location, err := m.deps.Files.SaveFile(fh, fh.Filename)
	if err != nil {
		log.Error().Err(err).Str("filename", fh.Filename).Msg("[media] upload: could not store file")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not store file"}
	}

	var duration int
	if form.Duration != nil {
		duration = *form.Duration
	} else {
		duration = m.probe(ctx, location)
	}

	asset, err := m.deps.Catalog.Create(ctx, media.NewAsset{
		Filename:    name,
		MediaType:   mediaType,
		Duration:    duration,
		StoragePath: location,
	})
	if err != nil {
		m.removeFile(location)
		return nil, api.FromError(err, "create media")
	}

	log.Info().Int("media_id", asset.ID).Str("operator", middleware.CurrentOperator(ctx)).
		Str("media_type", string(asset.MediaType)).Int("duration", asset.Duration).Msg("[media] uploaded")
	m.deps.notifier().Notify(notify.MediaCreated, map[string]any{
		"id":         asset.ID,
		"filename":   asset.Filename,
		"media_type": asset.MediaType,
		"duration":   asset.Duration,
	})
	return api.WithStatus(http.StatusCreated, asset), nil
}

// probe reads a video's duration, falling back to the configured default
// when ffprobe is unavailable or cannot parse the file.
func (m *MediaController) probe(ctx *gin.Context, location string) int {
	if m.deps.Prober != nil {
		seconds, err := m.deps.Prober.Duration(ctx, location)
		if err == nil {
			return seconds
		}
		log.Warn().Err(err).Str("location", location).Msg("[media] upload: duration probe failed, using fallback")
	}
	return m.deps.FallbackVideoDuration
}

func (m *MediaController) removeFile(location string) {
	if m.deps.Files == nil || location == "" {
		return
	}
	if err := m.deps.Files.DeleteFile(location); err != nil {
		log.Warn().Err(err).Str("location", location).Msg("[media] could not remove stored file")
	}
}

func (m *MediaController) getMedia(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	asset, err := m.deps.Catalog.Get(ctx, id)
	if err != nil {
		return nil, api.FromError(err, "get media")
	}
	return asset, nil
}

func (m *MediaController) updateMedia(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var req packets.UpdateMediaRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	existing, err := m.deps.Catalog.Get(ctx, id)
	if err != nil {
		return nil, api.FromError(err, "get media")
	}
	if req.Duration != nil && existing.MediaType == model.MediaVideo {
		return nil, &api.APIError{Code: http.StatusUnprocessableEntity, Message: "video duration is fixed by the file"}
	}

	asset, err := m.deps.Catalog.Update(ctx, id, req.Filename, req.Duration)
	if err != nil {
		return nil, api.FromError(err, "update media")
	}

	m.deps.notifier().Notify(notify.MediaUpdated, map[string]any{
		"id":       asset.ID,
		"filename": asset.Filename,
		"duration": asset.Duration,
	})
	return asset, nil
}

func (m *MediaController) deleteMedia(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	asset, err := m.deps.Catalog.Delete(ctx, id)
	if err != nil {
		return nil, api.FromError(err, "delete media")
	}
	m.removeFile(asset.StoragePath)

	log.Info().Int("media_id", id).Str("operator", middleware.CurrentOperator(ctx)).Msg("[media] deleted")
	m.deps.notifier().Notify(notify.MediaDeleted, map[string]any{"id": id})
	return packets.MessageResponse{Message: "media deleted"}, nil
}

func (m *MediaController) listPlaylists(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	refs, err := m.deps.Catalog.PlaylistsContaining(ctx, id)
	if err != nil {
		return nil, api.FromError(err, "list playlists for media")
	}
	return refs, nil
}

func (m *MediaController) listSchedules(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	ok, err := m.deps.Catalog.Exists(ctx, id)
	if err != nil {
		return nil, api.FromError(err, "get media")
	}
	if !ok {
		return nil, api.FromError(errs.NotFoundf("media %d not found", id), "get media")
	}
	rules, err := m.deps.Schedules.ForMedia(ctx, id)
	if err != nil {
		return nil, api.FromError(err, "list schedules for media")
	}
	return packets.NewScheduleResponses(rules), nil
}

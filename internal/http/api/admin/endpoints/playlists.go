package endpoints

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signance/internal/errs"
	"github.com/Nixie-Tech-LLC/signance/internal/http/api"
	"github.com/Nixie-Tech-LLC/signance/internal/http/api/admin/packets"
	"github.com/Nixie-Tech-LLC/signance/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/signance/internal/notify"
)

type PlaylistController struct {
	deps Deps
}

// PlaylistModule mounts the /playlists endpoints.
func PlaylistModule(deps Deps) api.Module {
	ctl := &PlaylistController{deps: deps}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/playlists", ctl.listPlaylists)
		c.POST("/playlists", ctl.createPlaylist)
		c.GET("/playlists/stats", ctl.stats)
		c.GET("/playlists/:id", ctl.getPlaylist)
		c.PUT("/playlists/:id", ctl.updatePlaylist)
		c.DELETE("/playlists/:id", ctl.deletePlaylist)

		c.POST("/playlists/:id/media", ctl.addMedia)
		c.POST("/playlists/:id/media/batch", ctl.addMediaBatch)
		c.DELETE("/playlists/:id/media/:media_id", ctl.removeMedia)
		c.PUT("/playlists/:id/media/order", ctl.reorderMedia)
		c.PUT("/playlists/:id/media/:media_id/duration", ctl.updateDuration)

		c.GET("/playlists/:id/schedules", ctl.listSchedules)
	})
}

func (p *PlaylistController) listPlaylists(ctx *gin.Context) (any, *api.APIError) {
	limit, offset, apiErr := api.Page(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	all, err := p.deps.Composer.List(ctx, limit, offset)
	if err != nil {
		return nil, api.FromError(err, "list playlists")
	}

	out := make([]packets.PlaylistSummary, 0, len(all))
	for _, pl := range all {
		exp, err := p.deps.Composer.Resolve(ctx, pl.ID)
		if errors.Is(err, errs.NotFound) {
			continue
		}
		if err != nil {
			return nil, api.FromError(err, "list playlists")
		}
		out = append(out, packets.PlaylistSummary{
			Playlist:      exp.Playlist,
			MediaCount:    len(exp.Items),
			TotalDuration: exp.TotalDuration,
		})
	}
	return out, nil
}

func (p *PlaylistController) createPlaylist(ctx *gin.Context) (any, *api.APIError) {
	var req packets.CreatePlaylistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	pl, err := p.deps.Composer.Create(ctx, req.Name, req.Description)
	if err != nil {
		return nil, api.FromError(err, "create playlist")
	}

	log.Info().Int("playlist_id", pl.ID).Str("operator", middleware.CurrentOperator(ctx)).Msg("[playlist] created")
	p.deps.notifier().Notify(notify.PlaylistCreated, map[string]any{"id": pl.ID, "name": pl.Name})
	return api.WithStatus(http.StatusCreated, pl), nil
}

func (p *PlaylistController) stats(ctx *gin.Context) (any, *api.APIError) {
	s, err := p.deps.Composer.Stats(ctx)
	if err != nil {
		return nil, api.FromError(err, "compute playlist stats")
	}
	return s, nil
}

func (p *PlaylistController) getPlaylist(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	exp, err := p.deps.Composer.Resolve(ctx, id)
	if err != nil {
		return nil, api.FromError(err, "get playlist")
	}
	rules, err := p.deps.Schedules.ForPlaylist(ctx, id)
	if err != nil {
		return nil, api.FromError(err, "list schedules for playlist")
	}
	return packets.PlaylistResponse{Expansion: exp, Schedules: packets.NewScheduleResponses(rules)}, nil
}

func (p *PlaylistController) updatePlaylist(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var req packets.UpdatePlaylistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	pl, err := p.deps.Composer.Update(ctx, id, req.Name, req.Description)
	if err != nil {
		return nil, api.FromError(err, "update playlist")
	}

	p.deps.notifier().Notify(notify.PlaylistUpdated, map[string]any{"id": pl.ID, "name": pl.Name})
	return pl, nil
}

func (p *PlaylistController) deletePlaylist(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if err := p.deps.Composer.Delete(ctx, id); err != nil {
		return nil, api.FromError(err, "delete playlist")
	}

	log.Info().Int("playlist_id", id).Str("operator", middleware.CurrentOperator(ctx)).Msg("[playlist] deleted")
	p.deps.notifier().Notify(notify.PlaylistDeleted, map[string]any{"id": id})
	return packets.MessageResponse{Message: "playlist deleted"}, nil
}

func (p *PlaylistController) addMedia(ctx *gin.Context) (any, *api.APIError) {
	pid, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var req packets.AddPlaylistMediaRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	entry, err := p.deps.Composer.AddMedia(ctx, pid, req.MediaID, req.Duration)
	if err != nil {
		return nil, api.FromError(err, "add media to playlist")
	}

	p.deps.notifier().Notify(notify.PlaylistMediaAdded, map[string]any{
		"playlist_id": pid,
		"media_id":    req.MediaID,
		"order_index": entry.OrderIndex,
	})
	return api.WithStatus(http.StatusCreated, entry), nil
}

func (p *PlaylistController) addMediaBatch(ctx *gin.Context) (any, *api.APIError) {
	pid, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var req packets.AddPlaylistMediaBatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	added, skipped, err := p.deps.Composer.AddMediaBatch(ctx, pid, req.MediaIDs)
	if err != nil {
		return nil, api.FromError(err, "add media to playlist")
	}

	if len(added) > 0 {
		ids := make([]int, 0, len(added))
		for _, e := range added {
			ids = append(ids, e.MediaID)
		}
		p.deps.notifier().Notify(notify.PlaylistMediaAdded, map[string]any{
			"playlist_id": pid,
			"media_ids":   ids,
		})
	}
	return packets.BatchAddResponse{Added: added, Skipped: skipped}, nil
}

func (p *PlaylistController) removeMedia(ctx *gin.Context) (any, *api.APIError) {
	pid, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	mid, apiErr := paramID(ctx, "media_id")
	if apiErr != nil {
		return nil, apiErr
	}

	if err := p.deps.Composer.RemoveMedia(ctx, pid, mid); err != nil {
		return nil, api.FromError(err, "remove media from playlist")
	}

	p.deps.notifier().Notify(notify.PlaylistMediaRemoved, map[string]any{"playlist_id": pid, "media_id": mid})
	return packets.MessageResponse{Message: "media removed from playlist"}, nil
}

func (p *PlaylistController) reorderMedia(ctx *gin.Context) (any, *api.APIError) {
	pid, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var req packets.ReorderPlaylistMediaRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	missing, err := p.deps.Composer.Reorder(ctx, pid, req.MediaOrders)
	if err != nil {
		return nil, api.FromError(err, "reorder playlist")
	}
	if missing == nil {
		missing = []int{}
	}

	p.deps.notifier().Notify(notify.PlaylistMediaReordered, map[string]any{"playlist_id": pid})
	return packets.ReorderResponse{Missing: missing}, nil
}

func (p *PlaylistController) updateDuration(ctx *gin.Context) (any, *api.APIError) {
	pid, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	mid, apiErr := paramID(ctx, "media_id")
	if apiErr != nil {
		return nil, apiErr
	}

	var req packets.UpdateEntryDurationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	if err := p.deps.Composer.UpdateEntryDuration(ctx, pid, mid, req.Duration); err != nil {
		return nil, api.FromError(err, "update playlist media duration")
	}

	p.deps.notifier().Notify(notify.PlaylistMediaDurationUpdated, map[string]any{
		"playlist_id": pid,
		"media_id":    mid,
		"duration":    req.Duration,
	})
	return packets.MessageResponse{Message: "duration updated"}, nil
}

func (p *PlaylistController) listSchedules(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if _, err := p.deps.Composer.Get(ctx, id); err != nil {
		return nil, api.FromError(err, "get playlist")
	}
	rules, err := p.deps.Schedules.ForPlaylist(ctx, id)
	if err != nil {
		return nil, api.FromError(err, "list schedules for playlist")
	}
	return packets.NewScheduleResponses(rules), nil
}

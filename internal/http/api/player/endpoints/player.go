package endpoints

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signance/internal/business"
	"github.com/Nixie-Tech-LLC/signance/internal/http/api"
	"github.com/Nixie-Tech-LLC/signance/internal/http/api/player/packets"
	"github.com/Nixie-Tech-LLC/signance/internal/media"
	"github.com/Nixie-Tech-LLC/signance/internal/notify"
	"github.com/Nixie-Tech-LLC/signance/internal/playlist"
	"github.com/Nixie-Tech-LLC/signance/internal/schedule"
)

// PlaylistCache keeps rendered playlist bodies with their ETag. Set must
// refuse the write when the playlist was invalidated after Version was read.
type PlaylistCache interface {
	Version(ctx context.Context, playlistID int) (string, error)
	Get(ctx context.Context, playlistID int) (etag string, body []byte, ok bool, err error)
	Set(ctx context.Context, playlistID int, version, etag string, body []byte) (stored bool, err error)
}

// Deps are the services behind the player endpoints. Cache and Hub may be
// nil.
type Deps struct {
	Resolver *schedule.Resolver
	Composer *playlist.Composer
	Catalog  *media.Catalog
	Business *business.Service
	Cache    PlaylistCache
	Hub      *notify.Hub
}

type PlayerController struct {
	deps Deps
}

// PlayerModule mounts the public endpoints screens poll.
func PlayerModule(deps Deps) api.Module {
	ctl := &PlayerController{deps: deps}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/now", ctl.now)
		c.GET("/date/:date", ctl.forDate)
		c.GET("/playlists", ctl.listPlaylists)
		c.GET("/playlists/:id", ctl.getPlaylist)
		c.GET("/playlists/:id/items", ctl.playlistItems)
		c.GET("/media", ctl.listMedia)
		c.GET("/media/:id", ctl.getMedia)
		c.GET("/business", ctl.getBusiness)
		if deps.Hub != nil {
			c.GET("/ws", ctl.subscribe)
		}
	})
}

func (p *PlayerController) now(ctx *gin.Context) (any, *api.APIError) {
	at := time.Now()
	if v := ctx.Query("at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, api.BadRequest("at must be an RFC3339 timestamp")
		}
		at = t
	}

	items, err := p.deps.Resolver.ResolveForInstant(ctx, at)
	if err != nil {
		return nil, api.FromError(err, "resolve schedule")
	}
	return writeTagged(ctx, packets.NewPlanResponse("", items))
}

func (p *PlayerController) forDate(ctx *gin.Context) (any, *api.APIError) {
	date, err := time.ParseInLocation("2006-01-02", ctx.Param("date"), p.deps.Resolver.Location())
	if err != nil {
		return nil, api.BadRequest("date must be YYYY-MM-DD")
	}

	items, err := p.deps.Resolver.ResolveForDate(ctx, date)
	if err != nil {
		return nil, api.FromError(err, "resolve schedule")
	}
	return writeTagged(ctx, packets.NewPlanResponse(date.Format("2006-01-02"), items))
}

func (p *PlayerController) listPlaylists(ctx *gin.Context) (any, *api.APIError) {
	limit, offset, apiErr := api.Page(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	all, err := p.deps.Composer.List(ctx, limit, offset)
	if err != nil {
		return nil, api.FromError(err, "list playlists")
	}
	return all, nil
}

func (p *PlayerController) getPlaylist(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := paramID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	// version is read before resolving; a mutation in between makes the
	// cache refuse this rendering.
	version, cacheable := "", false
	if p.deps.Cache != nil {
		etag, body, ok, err := p.deps.Cache.Get(ctx, id)
		if err != nil {
			log.Warn().Err(err).Int("playlist_id", id).Msg("[player] playlist cache read failed")
		} else if ok {
			log.Debug().Int("playlist_id", id).Msg("[player] playlist served from cache")
			return writeBody(ctx, etag, body), nil
		}
		if version, err = p.deps.Cache.Version(ctx, id); err != nil {
			log.Warn().Err(err).Int("playlist_id", id).Msg("[player] playlist cache version read failed")
		} else {
			cacheable = true
		}
	}

	exp, err := p.deps.Composer.Resolve(ctx, id)
	if err != nil {
		return nil, api.FromError(err, "resolve playlist")
	}
	body, err := json.Marshal(exp)
	if err != nil {
		return nil, api.FromError(err, "encode playlist")
	}
	etag := etagOf(body)

	if cacheable {
		stored, err := p.deps.Cache.Set(ctx, id, version, etag, body)
		switch {
		case err != nil:
			log.Warn().Err(err).Int("playlist_id", id).Msg("[player] playlist cache write failed")
		case !stored:
			log.Debug().Int("playlist_id", id).Msg("[player] playlist changed while resolving, not cached")
		}
	}
	return writeBody(ctx, etag, body), nil
}

func (p *PlayerController) playlistItems(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := paramID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	exp, err := p.deps.Composer.Resolve(ctx, id)
	if err != nil {
		return nil, api.FromError(err, "resolve playlist")
	}
	return exp.Items, nil
}

func (p *PlayerController) listMedia(ctx *gin.Context) (any, *api.APIError) {
	limit, offset, apiErr := api.Page(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	all, err := p.deps.Catalog.List(ctx, limit, offset)
	if err != nil {
		return nil, api.FromError(err, "list media")
	}
	return all, nil
}

func (p *PlayerController) getMedia(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := paramID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	asset, err := p.deps.Catalog.Get(ctx, id)
	if err != nil {
		return nil, api.FromError(err, "get media")
	}
	return asset, nil
}

func (p *PlayerController) getBusiness(ctx *gin.Context) (any, *api.APIError) {
	profile, err := p.deps.Business.Get(ctx)
	if err != nil {
		return nil, api.FromError(err, "get business")
	}
	return packets.BusinessResponse{Name: profile.Name, Logo: profile.LogoPath}, nil
}

func (p *PlayerController) subscribe(ctx *gin.Context) (any, *api.APIError) {
	if err := p.deps.Hub.ServeWS(ctx.Writer, ctx.Request); err != nil {
		log.Warn().Err(err).Str("remote", ctx.ClientIP()).Msg("[player] websocket upgrade failed")
	}
	return api.Handled, nil
}

func paramID(ctx *gin.Context) (int, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, api.BadRequest("invalid id")
	}
	return id, nil
}

func etagOf(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func writeTagged(ctx *gin.Context, v any) (any, *api.APIError) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, api.FromError(err, "encode plan")
	}
	return writeBody(ctx, etagOf(body), body), nil
}

// writeBody answers 304 when the client already holds etag.
func writeBody(ctx *gin.Context, etag string, body []byte) any {
	ctx.Header("ETag", etag)
	ctx.Header("Cache-Control", "no-cache")
	if match := ctx.GetHeader("If-None-Match"); match != "" && match == etag {
		ctx.Status(http.StatusNotModified)
		return api.Handled
	}
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
	return api.Handled
}

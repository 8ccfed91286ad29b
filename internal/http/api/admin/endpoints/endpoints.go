package endpoints

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/signance/internal/business"
	"github.com/Nixie-Tech-LLC/signance/internal/http/api"
	"github.com/Nixie-Tech-LLC/signance/internal/media"
	"github.com/Nixie-Tech-LLC/signance/internal/notify"
	"github.com/Nixie-Tech-LLC/signance/internal/playlist"
	"github.com/Nixie-Tech-LLC/signance/internal/probe"
	"github.com/Nixie-Tech-LLC/signance/internal/schedule"
	"github.com/Nixie-Tech-LLC/signance/internal/storage"
)

// Deps are the services behind the admin endpoints.
type Deps struct {
	Catalog   *media.Catalog
	Composer  *playlist.Composer
	Schedules *schedule.Service
	Business  *business.Service
	Files     storage.Storage
	Prober    probe.DurationProber
	Notifier  notify.Sink

	// FallbackVideoDuration is stored for uploads ffprobe cannot read.
	FallbackVideoDuration int
}

func (d Deps) notifier() notify.Sink {
	if d.Notifier == nil {
		return notify.Nop{}
	}
	return d.Notifier
}

func paramID(ctx *gin.Context, name string) (int, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, api.BadRequest(fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

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

type BusinessController struct {
	deps Deps
}

// BusinessModule mounts the /business endpoints.
func BusinessModule(deps Deps) api.Module {
	ctl := &BusinessController{deps: deps}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/business", ctl.getBusiness)
		c.PUT("/business", ctl.updateBusiness)
		c.GET("/business/logo", ctl.getLogo)
	})
}

func (b *BusinessController) getBusiness(ctx *gin.Context) (any, *api.APIError) {
	profile, err := b.deps.Business.Get(ctx)
	if err != nil {
		return nil, api.FromError(err, "get business")
	}
	return profile, nil
}

func (b *BusinessController) updateBusiness(ctx *gin.Context) (any, *api.APIError) {
	var req packets.UpdateBusinessRequest
	if err := ctx.ShouldBind(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	logo, err := ctx.FormFile("logo")
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
			return nil, api.BadRequest("invalid logo upload")
		}
		logo = nil
	}

	profile, err := b.deps.Business.Update(ctx, req.Name, logo)
	if err != nil {
		return nil, api.FromError(err, "update business")
	}

	log.Info().Str("operator", middleware.CurrentOperator(ctx)).Str("name", profile.Name).
		Bool("logo", logo != nil).Msg("[business] updated")
	payload := map[string]any{"name": profile.Name}
	if profile.LogoPath != nil {
		payload["logo_path"] = *profile.LogoPath
	}
	b.deps.notifier().Notify(notify.BusinessUpdated, payload)
	return profile, nil
}

func (b *BusinessController) getLogo(ctx *gin.Context) (any, *api.APIError) {
	profile, err := b.deps.Business.Get(ctx)
	if err != nil {
		return nil, api.FromError(err, "get business")
	}
	if profile.LogoPath == nil {
		return nil, api.FromError(errs.NotFoundf("no logo uploaded"), "get logo")
	}
	return packets.LogoResponse{Logo: *profile.LogoPath}, nil
}

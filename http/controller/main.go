package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tnqbao/gau-feed-service/config"
	"github.com/tnqbao/gau-feed-service/infra"
	"github.com/tnqbao/gau-feed-service/repository"
	"github.com/tnqbao/gau-feed-service/utils"
)

type Controller struct {
	Config     *config.Config
	Infra      *infra.Infra
	Repository *repository.Repository
}

func NewController(config *config.Config, infra *infra.Infra, repo *repository.Repository) *Controller {
	return &Controller{
		Config:     config,
		Infra:      infra,
		Repository: repo,
	}
}

// parseUUIDParam writes a 400 response and returns false when the path
// parameter is not a UUID.
func (ctrl *Controller) parseUUIDParam(c *gin.Context, param, tag string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		ctrl.Infra.Logger.WarningWithContextf(c.Request.Context(), "[%s] Invalid %s format: %q", tag, param, raw)
		utils.JSON400(c, "Invalid "+param+" format")
		return uuid.Nil, false
	}
	return id, true
}

package profile

import (
	"github.com/gin-gonic/gin"

	"github.com/showmatch/showmatch-backend/internal/app"
)

// Registrar ties the profile service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the profile service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the profile and favorites endpoints to the router
func (r *Registrar) Register(router *gin.Engine) {
	service := NewProfileService(r.appCtx)

	v1 := router.Group("/v1/users/:id")
	{
		v1.GET("/profile", service.handleGetProfile)
		v1.GET("/favorites", service.handleListFavorites)
		v1.PUT("/favorites/:show", service.handleAddFavorite)
		v1.DELETE("/favorites/:show", service.handleRemoveFavorite)
	}
}

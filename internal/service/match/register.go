package match

import (
	"github.com/gin-gonic/gin"

	"github.com/showmatch/showmatch-backend/internal/app"
)

// Registrar ties the match service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the match service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the match endpoints to the router
func (r *Registrar) Register(router *gin.Engine) {
	service := NewMatchService(r.appCtx)

	v1 := router.Group("/v1/users/:id")
	{
		v1.POST("/matches/search", service.handleSearch)
		v1.GET("/matches", service.handleListMatches)
		v1.DELETE("/matches/:other", service.handleUnmatch)
		v1.POST("/matches/:other/conversation", service.handleStartConversation)
		v1.GET("/cooldown", service.handleCooldown)
		v1.POST("/blocks/:other", service.handleBlock)
		v1.DELETE("/blocks/:other", service.handleUnblock)
	}
}

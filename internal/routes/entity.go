package routes

import (
	"github.com/gin-gonic/gin"

	"jaguarundi/internal/handlers"
	"jaguarundi/internal/middlewares"
)

type EntityRoutes struct {
	handler    *handlers.EntityHandler
	authSecret []byte
}

// NewEntityRoutes wires the entity endpoints. A non-empty authSecret puts the write
// endpoints behind bearer-token authentication.
func NewEntityRoutes(handler *handlers.EntityHandler, authSecret []byte) *EntityRoutes {
	return &EntityRoutes{handler: handler, authSecret: authSecret}
}

func (r *EntityRoutes) RegisterRoutes(router *gin.RouterGroup) {
	entities := router.Group("/entities/:entity")
	{
		entities.GET("/records", r.handler.ListRecords)
		entities.GET("/records/:id", r.handler.GetRecord)
	}

	writes := router.Group("/entities/:entity")
	if len(r.authSecret) > 0 {
		writes.Use(middlewares.Authenticate(r.authSecret))
	}
	{
		writes.POST("/table", r.handler.CreateTable)
		writes.DELETE("/table", r.handler.DropTable)
		writes.POST("/records", r.handler.CreateRecord)
		writes.PATCH("/records/:id", r.handler.UpdateRecord)
	}
}

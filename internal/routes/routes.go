package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jaguarundi/internal/handlers"
	"jaguarundi/internal/middlewares"
)

func RegisterRoutes(router *gin.Engine, entityHandler *handlers.EntityHandler, schemaHandler *handlers.SchemaHandler, authSecret []byte) {
	router.Use(middlewares.RequestID())

	api := router.Group("/api/v1")

	schemaRoutes := NewSchemaRoutes(schemaHandler)
	schemaRoutes.RegisterRoutes(api)

	entityRoutes := NewEntityRoutes(entityHandler, authSecret)
	entityRoutes.RegisterRoutes(api)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}

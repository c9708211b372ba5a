package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jaguarundi/internal/responses"
	"jaguarundi/internal/services"
)

type SchemaHandler struct {
	schemaService *services.SchemaService
}

func NewSchemaHandler(schemaService *services.SchemaService) *SchemaHandler {
	return &SchemaHandler{
		schemaService: schemaService,
	}
}

// ListEntities handles GET /api/v1/schema
func (h *SchemaHandler) ListEntities(c *gin.Context) {
	responses.Success(c, http.StatusOK, h.schemaService.Entities(), "Entities retrieved successfully")
}

// VisualizeSchema handles GET /api/v1/schema/visualize
func (h *SchemaHandler) VisualizeSchema(c *gin.Context) {
	responses.Success(c, http.StatusOK, gin.H{
		"mermaid": h.schemaService.Visualize(),
	}, "Schema visualization generated successfully")
}

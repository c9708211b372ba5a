package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"jaguarundi/internal/responses"
	"jaguarundi/internal/services"
	"jaguarundi/internal/utils"
)

// onlyParam restricts the selected columns; every other query parameter is an
// equality filter.
const onlyParam = "only"

type EntityHandler struct {
	entityService *services.EntityService
}

func NewEntityHandler(entityService *services.EntityService) *EntityHandler {
	return &EntityHandler{
		entityService: entityService,
	}
}

// CreateTable handles POST /api/v1/entities/:entity/table
func (h *EntityHandler) CreateTable(c *gin.Context) {
	entity := c.Param("entity")
	if err := h.entityService.CreateTable(c.Request.Context(), entity); err != nil {
		fail(c, err, fmt.Sprintf("Failed to create table for %s", entity))
		return
	}
	responses.Success(c, http.StatusCreated, nil, "Table created successfully")
}

// DropTable handles DELETE /api/v1/entities/:entity/table
func (h *EntityHandler) DropTable(c *gin.Context) {
	entity := c.Param("entity")
	if err := h.entityService.DropTable(c.Request.Context(), entity); err != nil {
		fail(c, err, fmt.Sprintf("Failed to drop table for %s", entity))
		return
	}
	responses.Success(c, http.StatusOK, nil, "Table dropped successfully")
}

// ListRecords handles GET /api/v1/entities/:entity/records
func (h *EntityHandler) ListRecords(c *gin.Context) {
	filters := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if key == onlyParam || len(values) == 0 {
			continue
		}
		filters[key] = values[0]
	}
	only := utils.SplitList(c.Query(onlyParam))

	records, err := h.entityService.List(c.Request.Context(), c.Param("entity"), filters, only)
	if err != nil {
		fail(c, err, "Failed to list records")
		return
	}
	responses.Success(c, http.StatusOK, records, "Records retrieved successfully")
}

// GetRecord handles GET /api/v1/entities/:entity/records/:id
func (h *EntityHandler) GetRecord(c *gin.Context) {
	only := utils.SplitList(c.Query(onlyParam))

	record, err := h.entityService.Get(c.Request.Context(), c.Param("entity"), c.Param("id"), only)
	if err != nil {
		fail(c, err, "Failed to get record")
		return
	}
	responses.Success(c, http.StatusOK, record, "Record retrieved successfully")
}

// CreateRecord handles POST /api/v1/entities/:entity/records
func (h *EntityHandler) CreateRecord(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	record, err := h.entityService.Create(c.Request.Context(), c.Param("entity"), body)
	if err != nil {
		fail(c, err, "Failed to create record")
		return
	}
	responses.Success(c, http.StatusCreated, record, "Record created successfully")
}

// UpdateRecord handles PATCH /api/v1/entities/:entity/records/:id
func (h *EntityHandler) UpdateRecord(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	record, err := h.entityService.Update(c.Request.Context(), c.Param("entity"), c.Param("id"), body)
	if err != nil {
		fail(c, err, "Failed to update record")
		return
	}
	responses.Success(c, http.StatusOK, record, "Record updated successfully")
}

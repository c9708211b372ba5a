package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jaguarundi/internal/models"
	"jaguarundi/internal/responses"
	"jaguarundi/internal/services"
)

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUnknownEntity), errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrMultipleResults),
		errors.Is(err, models.ErrIntegrity),
		errors.Is(err, models.ErrDDLExecution):
		return http.StatusConflict
	case errors.Is(err, models.ErrPrecondition):
		return http.StatusPreconditionFailed
	case errors.Is(err, models.ErrUnknownColumn),
		errors.Is(err, models.ErrUnsupportedValue),
		errors.Is(err, models.ErrSchemaDefinition):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error, message string) {
	responses.Fail(c, statusFor(err), err, message)
}

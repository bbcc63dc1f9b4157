package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/verticalstudies/coaching-api/internal/dto"
	"github.com/verticalstudies/coaching-api/internal/service"
)

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as a dto.ErrorResponse. Internal failures hide their cause.
func RespondError(ctx *gin.Context, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("op", op).Msg("Request failed")
		msg := "Internal server error"
		if status == http.StatusServiceUnavailable {
			msg = "Service temporarily unavailable"
		}
		ctx.JSON(status, dto.ErrorResponse{Message: msg})
		return
	}
	log.Warn().Err(err).Str("op", op).Int("status", status).Msg("Request rejected")
	ctx.JSON(status, dto.ErrorResponse{Message: err.Error()})
}

// RespondBindError reports a request body or query that failed binding.
func RespondBindError(ctx *gin.Context, op string, err error) {
	log.Warn().Err(err).Str("op", op).Msg("Failed to bind request")
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request", Details: []string{err.Error()}})
}

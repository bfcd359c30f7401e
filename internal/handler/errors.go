package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/learnflow/learnflow-backend/internal/exam"
	"github.com/learnflow/learnflow-backend/internal/response"
	"github.com/learnflow/learnflow-backend/internal/service"
	"github.com/rs/zerolog"
)

// classify maps a service or domain error to its HTTP status and API code.
func classify(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, exam.ErrInvalidState):
		return http.StatusConflict, response.ErrInvalidState
	case errors.Is(err, exam.ErrInvalidQuestion):
		return http.StatusUnprocessableEntity, response.ErrInvalidQuestion
	case errors.Is(err, service.ErrAssessmentNotFound):
		return http.StatusNotFound, response.ErrAssessmentNotFound
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, response.ErrSessionNotFound
	case errors.Is(err, service.ErrInvalidAssessment):
		return http.StatusUnprocessableEntity, response.ErrInvalidAssessment
	case errors.Is(err, service.ErrAssessmentExists):
		return http.StatusConflict, response.ErrConflict
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, response.ErrInvalidCredentials
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, response.ErrNotFound
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// fail writes err as an API error. Unexpected errors are logged and hidden.
func fail(c *gin.Context, log zerolog.Logger, err error) {
	status, code := classify(err)
	if code == response.ErrInternal {
		log.Error().Err(err).
			Str("request_id", response.RequestID(c)).
			Str("path", c.FullPath()).
			Msg("Request failed")
		response.Fail(c, status, code)
		return
	}

	// Domain errors carry the offending question or rule.
	if code == response.ErrInvalidQuestion || code == response.ErrInvalidAssessment {
		response.FailWithFields(c, status, code, map[string]string{"detail": err.Error()})
		return
	}
	response.Fail(c, status, code)
}

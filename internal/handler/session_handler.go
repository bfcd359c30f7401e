package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/learnflow/learnflow-backend/internal/middleware"
	"github.com/learnflow/learnflow-backend/internal/model"
	"github.com/learnflow/learnflow-backend/internal/response"
	"github.com/learnflow/learnflow-backend/internal/service"
	"github.com/learnflow/learnflow-backend/internal/validator"
	"github.com/rs/zerolog"
)

// SessionHandler drives a student's timed attempt over HTTP.
type SessionHandler struct {
	assessmentService *service.AssessmentService
	sessionService    *service.SessionService
	log               zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(assessmentService *service.AssessmentService, sessionService *service.SessionService, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		assessmentService: assessmentService,
		sessionService:    sessionService,
		log:               log.With().Str("component", "session_handler").Logger(),
	}
}

// Start godoc
// POST /api/v1/student/assessments/:id/session
// Starts the countdown, or resumes the attempt already in progress.
func (h *SessionHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	ctx := c.Request.Context()
	assessmentID := c.Param("id")

	participant := service.Participant{UserID: claims.UserID, Name: claims.Name}
	snap, err := h.sessionService.Start(ctx, participant, assessmentID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	a, err := h.assessmentService.Get(ctx, assessmentID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session": snap,
		"paper":   a.Paper(),
	})
}

// State godoc
// GET /api/v1/student/assessments/:id/session
func (h *SessionHandler) State(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	snap, err := h.sessionService.State(claims.UserID, c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, snap)
}

// SelectAnswer godoc
// PUT /api/v1/student/assessments/:id/session/answers
// Records or overwrites the chosen option for one question.
func (h *SessionHandler) SelectAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.sessionService.SelectAnswer(claims.UserID, c.Param("id"), req.QuestionID, *req.OptionIndex)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, snap)
}

// Submit godoc
// POST /api/v1/student/assessments/:id/session/submit
// Scores the attempt. Repeating it returns the same result.
func (h *SessionHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	res, err := h.sessionService.Submit(claims.UserID, c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// Result godoc
// GET /api/v1/student/assessments/:id/session/result
func (h *SessionHandler) Result(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	res, err := h.sessionService.Result(claims.UserID, c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// Discard godoc
// DELETE /api/v1/student/assessments/:id/session
// Abandons the attempt without scoring it.
func (h *SessionHandler) Discard(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.sessionService.Discard(claims.UserID, c.Param("id")); err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

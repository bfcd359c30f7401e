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

// AssessmentHandler serves assessment listings and definitions.
type AssessmentHandler struct {
	assessmentService *service.AssessmentService
	sessionService    *service.SessionService
	log               zerolog.Logger
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(assessmentService *service.AssessmentService, sessionService *service.SessionService, log zerolog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		assessmentService: assessmentService,
		sessionService:    sessionService,
		log:               log.With().Str("component", "assessment_handler").Logger(),
	}
}

// Lobby godoc
// GET /api/v1/student/assessments
// Lists every assessment with the caller's status and latest score.
func (h *AssessmentHandler) Lobby(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	lobby, err := h.sessionService.Lobby(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assessments": lobby})
}

// Paper godoc
// GET /api/v1/student/assessments/:id/paper
// Returns the questions without correct answers.
func (h *AssessmentHandler) Paper(c *gin.Context) {
	a, err := h.assessmentService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, a.Paper())
}

// List godoc
// GET /api/v1/staff/assessments
func (h *AssessmentHandler) List(c *gin.Context) {
	list, err := h.assessmentService.List(c.Request.Context())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if list == nil {
		list = []model.Assessment{}
	}

	response.Success(c, http.StatusOK, gin.H{"assessments": list})
}

// Get godoc
// GET /api/v1/staff/assessments/:id
// Returns the full definition including correct answers.
func (h *AssessmentHandler) Get(c *gin.Context) {
	a, err := h.assessmentService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, a)
}

// Create godoc
// POST /api/v1/staff/assessments
func (h *AssessmentHandler) Create(c *gin.Context) {
	var req model.CreateAssessmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	a := req.ToAssessment()
	if err := h.assessmentService.Create(c.Request.Context(), a); err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, a)
}

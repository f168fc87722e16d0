package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/limaJavier/gradplan/internal/logger"
	"github.com/limaJavier/gradplan/pkg/catalog"
	"github.com/limaJavier/gradplan/pkg/model"
	"github.com/limaJavier/gradplan/pkg/progress"
	"github.com/limaJavier/gradplan/pkg/solver"
	"github.com/samber/lo"
)

// PlannerFactory builds a planner for the settings of a single request
type PlannerFactory func(settings model.Settings) (model.Planner, error)

type Handler struct {
	catalog      *catalog.Catalog
	requirements progress.Requirements
	settings     model.Settings
	newPlanner   PlannerFactory
}

func NewHandler(courses *catalog.Catalog, requirements progress.Requirements, settings model.Settings, newPlanner PlannerFactory) *Handler {
	return &Handler{
		catalog:      courses,
		requirements: requirements,
		settings:     settings,
		newPlanner:   newPlanner,
	}
}

type PlanRequest struct {
	Completed []string `json:"completed"`
	StartTerm int      `json:"startTerm,omitempty"` // Overrides the configured start term when set
	FrontLoad *bool    `json:"frontLoad,omitempty"`
}

type PlanResponse struct {
	RequestId        string              `json:"requestId"`
	Plan             model.Plan          `json:"plan"`
	EarnedCredits    int                 `json:"earnedCredits"`
	RemainingCredits int                 `json:"remainingCredits"`
	Blocked          map[string][]string `json:"blocked,omitempty"`
	Unknown          []string            `json:"unknown,omitempty"`
}

// CourseResponse is an offered course with the term parities at least one of its offerings runs in
type CourseResponse struct {
	catalog.Course
	Parity catalog.ParitySet `json:"parity"`
}

type ErrorResponse struct {
	RequestId string `json:"requestId"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Register mounts the routes on the given engine
func (handler *Handler) Register(router *gin.Engine) {
	router.GET("/health", handler.health)

	v1 := router.Group("/api/v1")
	v1.POST("/plans", handler.plan)
	v1.GET("/courses", handler.courses)
}

func (handler *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "courses": handler.catalog.Len()})
}

func (handler *Handler) courses(c *gin.Context) {
	courses := lo.Map(handler.catalog.Courses(), func(course catalog.Course, _ int) CourseResponse {
		return CourseResponse{Course: course, Parity: handler.catalog.Parity(course.Id)}
	})
	c.JSON(http.StatusOK, courses)
}

func (handler *Handler) plan(c *gin.Context) {
	var request PlanRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	settings := handler.settings
	if request.StartTerm != 0 {
		settings.StartTerm = request.StartTerm
	}
	if request.FrontLoad != nil {
		settings.FrontLoad = *request.FrontLoad
	}

	planner, err := handler.newPlanner(settings)
	if err != nil {
		handleError(c, err)
		return
	}

	remaining, err := progress.Adjust(handler.catalog, request.Completed, handler.requirements)
	if err != nil {
		handleError(c, err)
		return
	}

	plan, err := planner.Plan(remaining)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, PlanResponse{
		RequestId:        RequestId(c),
		Plan:             plan,
		EarnedCredits:    remaining.EarnedCredits,
		RemainingCredits: remaining.RemainingCredits,
		Blocked:          remaining.Blocked,
		Unknown:          remaining.Unknown,
	})
}

// handleError maps the domain errors onto HTTP statuses. Unsolvable models are not errors and never get here
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidSettings):
		respondError(c, http.StatusBadRequest, "INVALID_SETTINGS", err.Error())
	case errors.Is(err, progress.ErrInvalidRequirements):
		respondError(c, http.StatusInternalServerError, "INVALID_REQUIREMENTS", err.Error())
	case errors.Is(err, solver.ErrBackendUnavailable):
		respondError(c, http.StatusServiceUnavailable, "SOLVER_UNAVAILABLE", err.Error())
	case errors.Is(err, model.ErrInconsistentSchedule):
		respondError(c, http.StatusInternalServerError, "INCONSISTENT_SCHEDULE", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
	logger.Error().Err(err).Str("request_id", RequestId(c)).Msg("plan request failed")
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestId: RequestId(c),
		Code:      code,
		Message:   message,
	})
}

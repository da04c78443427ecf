package doctor

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carelink/carelink-api/internal/middleware"
	"github.com/carelink/carelink-api/internal/model"
	assignmentService "github.com/carelink/carelink-api/internal/service/assignment"
	doctorService "github.com/carelink/carelink-api/internal/service/doctor"
	apperrors "github.com/carelink/carelink-api/pkg/errors"
	"github.com/carelink/carelink-api/pkg/httputil"
)

type Handler struct {
	doctors     *doctorService.Service
	assignments *assignmentService.Service
	doctorOnly  gin.HandlerFunc
}

func NewHandler(doctors *doctorService.Service, assignments *assignmentService.Service, doctorOnly gin.HandlerFunc) *Handler {
	return &Handler{doctors: doctors, assignments: assignments, doctorOnly: doctorOnly}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.GET("", h.Directory)
		doctors.GET("/:id/profile", h.Profile)
		doctors.PUT("/profile", h.UpsertProfile)

		// Roster management is restricted to doctors at the route level;
		// the assignment service enforces the same rule again.
		roster := doctors.Group("/patients", h.doctorOnly)
		roster.GET("", h.ListPatients)
		roster.POST("", h.AssignPatient)
		roster.DELETE("/:patientID", h.UnassignPatient)
	}
}

// Directory is the searchable doctor listing available to every
// authenticated user.
func (h *Handler) Directory(c *gin.Context) {
	var filters model.DoctorSearchFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	profiles, err := h.doctors.Directory(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, profiles)
}

func (h *Handler) Profile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid doctor ID", err))
		return
	}

	profile, err := h.doctors.Profile(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, profile)
}

func (h *Handler) UpsertProfile(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("not authenticated"))
		return
	}

	var req model.UpsertDoctorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	profile, err := h.doctors.UpsertProfile(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, profile)
}

func (h *Handler) ListPatients(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("not authenticated"))
		return
	}

	patients, err := h.assignments.ListPatients(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patients)
}

func (h *Handler) AssignPatient(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("not authenticated"))
		return
	}

	var req model.AssignPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	assignment, err := h.assignments.Assign(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, assignment)
}

func (h *Handler) UnassignPatient(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("not authenticated"))
		return
	}

	patientID, err := uuid.Parse(c.Param("patientID"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid patient ID", err))
		return
	}

	if err := h.assignments.Unassign(c.Request.Context(), actor, patientID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "patient unassigned"})
}

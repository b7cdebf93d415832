package doctor

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medbook/booking-api/internal/middleware"
	"github.com/medbook/booking-api/internal/model"
	"github.com/medbook/booking-api/internal/service/appointment"
	"github.com/medbook/booking-api/internal/service/auth"
	"github.com/medbook/booking-api/internal/service/doctor"
	apperrors "github.com/medbook/booking-api/pkg/errors"
	"github.com/medbook/booking-api/pkg/httputil"
)

type Handler struct {
	authSvc *auth.Service
	svc     *doctor.Service
	aptSvc  *appointment.Service
}

func NewHandler(authSvc *auth.Service, svc *doctor.Service, aptSvc *appointment.Service) *Handler {
	return &Handler{
		authSvc: authSvc,
		svc:     svc,
		aptSvc:  aptSvc,
	}
}

func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	d := r.Group("/doctor")
	{
		d.POST("/doctor-login", h.DoctorLogin)
		d.GET("/getAllDoctors", h.GetAllDoctors)
		d.GET("/search", h.Search)
		d.POST("/getDoctorById", h.GetDoctorByID)
	}
}

func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	d := r.Group("/doctor")
	{
		d.POST("/getDoctorInfo", h.GetDoctorInfo)
		d.POST("/updateProfile", h.UpdateProfile)
		d.GET("/doctor-appointments", h.DoctorAppointments)
		d.POST("/update-appointment-status", h.UpdateAppointmentStatus)
	}
}

func (h *Handler) DoctorLogin(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	token, u, err := h.authSvc.DoctorLogin(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Logged in successfully", gin.H{
		"token": token,
		"user":  u,
	})
}

func (h *Handler) GetAllDoctors(c *gin.Context) {
	doctors, err := h.svc.GetAll(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, doctors)
}

func (h *Handler) Search(c *gin.Context) {
	doctors, err := h.svc.Search(c.Request.Context(), c.Query("specialization"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, doctors)
}

func (h *Handler) GetDoctorByID(c *gin.Context) {
	var req struct {
		DoctorID string `json:"doctorId" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor ID", err))
		return
	}

	d, err := h.svc.GetByID(c.Request.Context(), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, d)
}

func (h *Handler) GetDoctorInfo(c *gin.Context) {
	doctorID, err := callerID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	d, err := h.svc.GetByID(c.Request.Context(), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, d)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	doctorID, err := callerID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	d, err := h.svc.UpdateProfile(c.Request.Context(), doctorID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Profile updated", d)
}

func (h *Handler) DoctorAppointments(c *gin.Context) {
	doctorID, err := callerID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointments, err := h.aptSvc.ListByDoctor(c.Request.Context(), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) UpdateAppointmentStatus(c *gin.Context) {
	if c.GetString(middleware.ContextUserRole) != model.RoleDoctor {
		httputil.RespondWithError(c, apperrors.Forbidden("only doctors may update appointment status"))
		return
	}

	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	appointmentID, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}

	status := model.AppointmentStatus(req.Status)
	if !status.Valid() {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid status", nil))
		return
	}

	apt, err := h.aptSvc.UpdateStatus(c.Request.Context(), appointmentID, status, req.DoctorInstructions)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Appointment status updated", apt)
}

func callerID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		return uuid.Nil, &apperrors.AppError{Code: apperrors.ErrUnauthorized, Message: "invalid session identity"}
	}
	return id, nil
}

package appointment

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medbook/booking-api/internal/middleware"
	"github.com/medbook/booking-api/internal/model"
	"github.com/medbook/booking-api/internal/service/appointment"
	apperrors "github.com/medbook/booking-api/pkg/errors"
	"github.com/medbook/booking-api/pkg/httputil"
)

type Handler struct {
	svc *appointment.Service
}

func NewHandler(svc *appointment.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	apt := r.Group("/appointment")
	{
		apt.POST("/book-appointment", h.BookAppointment)
		apt.POST("/check-availability", h.CheckAvailability)
		apt.POST("/get-appointments-by-user", h.GetAppointmentsByUser)
		apt.POST("/get-appointments-by-doctor", h.GetAppointmentsByDoctor)
		apt.GET("/get-appointments-by-doctor", h.GetAppointmentsByDoctor)
		apt.POST("/doctor-appointments", h.GetAppointmentsByDoctor)
		apt.GET("/doctor-appointments", h.GetAppointmentsByDoctor)
		apt.POST("/update-status", h.UpdateStatus)
		apt.POST("/cancel-appointment", h.CancelAppointment)
	}
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	patientID, err := callerID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	apt, err := h.svc.Book(c.Request.Context(), patientID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Appointment booked successfully", apt)
}

func (h *Handler) CheckAvailability(c *gin.Context) {
	var req model.CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	if err := h.svc.CheckAvailability(c.Request.Context(), &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Slot is available", nil)
}

func (h *Handler) GetAppointmentsByUser(c *gin.Context) {
	patientID, err := callerID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointments, err := h.svc.ListByPatient(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointments)
}

// GetAppointmentsByDoctor lists a doctor's appointments. A doctor caller gets
// their own; anyone else must name a doctor in the body or query string.
func (h *Handler) GetAppointmentsByDoctor(c *gin.Context) {
	doctorID, err := h.resolveDoctorID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointments, err := h.svc.ListByDoctor(c.Request.Context(), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) resolveDoctorID(c *gin.Context) (uuid.UUID, error) {
	if c.GetString(middleware.ContextUserRole) == model.RoleDoctor {
		return callerID(c)
	}

	raw := c.Query("doctorId")
	if raw == "" {
		var req struct {
			DoctorID string `json:"doctorId"`
		}
		if err := c.ShouldBindJSON(&req); err == nil {
			raw = req.DoctorID
		}
	}
	if raw == "" {
		return uuid.Nil, apperrors.MissingField("doctorId")
	}

	doctorID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.BadRequest("invalid doctor ID", err)
	}
	return doctorID, nil
}

func (h *Handler) UpdateStatus(c *gin.Context) {
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

	apt, err := h.svc.UpdateStatus(c.Request.Context(), appointmentID, status, req.DoctorInstructions)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Appointment status updated", apt)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	var req model.CancelAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	appointmentID, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}

	apt, err := h.svc.Cancel(c.Request.Context(), appointmentID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Appointment cancelled", apt)
}

func callerID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		return uuid.Nil, &apperrors.AppError{Code: apperrors.ErrUnauthorized, Message: "invalid session identity"}
	}
	return id, nil
}

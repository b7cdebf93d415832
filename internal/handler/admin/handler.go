package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medbook/booking-api/internal/service/doctor"
	apperrors "github.com/medbook/booking-api/pkg/errors"
	"github.com/medbook/booking-api/pkg/httputil"
)

type Handler struct {
	doctorSvc *doctor.Service
}

func NewHandler(doctorSvc *doctor.Service) *Handler {
	return &Handler{doctorSvc: doctorSvc}
}

// RegisterRoutes expects to be mounted behind the admin role guard.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	a := r.Group("/admin")
	{
		a.GET("/doctors", h.ListDoctors)
		a.DELETE("/doctors/:id", h.DeleteDoctor)
	}
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.doctorSvc.GetAll(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, doctors)
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor ID", err))
		return
	}

	if err := h.doctorSvc.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Doctor removed", nil)
}

package user

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medbook/booking-api/internal/middleware"
	"github.com/medbook/booking-api/internal/model"
	"github.com/medbook/booking-api/internal/service/auth"
	"github.com/medbook/booking-api/internal/service/notification"
	"github.com/medbook/booking-api/internal/service/user"
	apperrors "github.com/medbook/booking-api/pkg/errors"
	"github.com/medbook/booking-api/pkg/httputil"
)

type Handler struct {
	authSvc  *auth.Service
	userSvc  *user.Service
	notifSvc notification.Service
}

func NewHandler(authSvc *auth.Service, userSvc *user.Service, notifSvc notification.Service) *Handler {
	return &Handler{
		authSvc:  authSvc,
		userSvc:  userSvc,
		notifSvc: notifSvc,
	}
}

func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	u := r.Group("/user")
	{
		u.POST("/register", h.Register)
		u.POST("/login", h.Login)
	}
}

func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	u := r.Group("/user")
	{
		u.POST("/getUserData", h.GetUserData)
		u.POST("/updateUserProfile", h.UpdateUserProfile)
		u.POST("/get-notifications", h.GetNotifications)
		u.POST("/mark-all-notifications-seen", h.MarkAllNotificationsSeen)
		u.POST("/delete-all-notifications", h.DeleteAllNotifications)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	u, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Registered successfully", u)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	token, u, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Logged in successfully", gin.H{
		"token": token,
		"user":  u,
	})
}

func (h *Handler) GetUserData(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	u, err := h.userSvc.Get(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) UpdateUserProfile(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	u, err := h.userSvc.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Profile updated", u)
}

func (h *Handler) GetNotifications(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	notifications, err := h.notifSvc.List(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, notifications)
}

func (h *Handler) MarkAllNotificationsSeen(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.notifSvc.MarkAllSeen(c.Request.Context(), userID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "All notifications marked as seen", nil)
}

func (h *Handler) DeleteAllNotifications(c *gin.Context) {
	userID, err := callerID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.notifSvc.DeleteAllSeen(c.Request.Context(), userID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Seen notifications deleted", nil)
}

func callerID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		return uuid.Nil, &apperrors.AppError{Code: apperrors.ErrUnauthorized, Message: "invalid session identity"}
	}
	return id, nil
}

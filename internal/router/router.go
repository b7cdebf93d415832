package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/medbook/booking-api/internal/handler/admin"
	"github.com/medbook/booking-api/internal/handler/appointment"
	"github.com/medbook/booking-api/internal/handler/doctor"
	"github.com/medbook/booking-api/internal/handler/health"
	"github.com/medbook/booking-api/internal/handler/user"
	"github.com/medbook/booking-api/internal/middleware"
	"github.com/medbook/booking-api/internal/model"
)

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	userH        *user.Handler
	doctorH      *doctor.Handler
	appointmentH *appointment.Handler
	adminH       *admin.Handler
	healthH      *health.Handler
	metrics      *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type Config struct {
	RateLimiter middleware.RateLimiterConfig
	CORSConfig  middleware.CORSConfig
	Timeout     time.Duration
}

func DefaultConfig() Config {
	return Config{
		RateLimiter: middleware.DefaultRateLimiterConfig(),
		CORSConfig:  middleware.DefaultCORSConfig(),
		Timeout:     middleware.DefaultTimeoutConfig().Duration,
	}
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	userH *user.Handler,
	doctorH *doctor.Handler,
	appointmentH *appointment.Handler,
	adminH *admin.Handler,
	healthH *health.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	r := &Router{
		engine:       engine,
		auth:         auth,
		userH:        userH,
		doctorH:      doctorH,
		appointmentH: appointmentH,
		adminH:       adminH,
		healthH:      healthH,
		metrics:      initRouterMetrics("booking_api"),
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
	)

	engine.Use(middleware.CORS(config.CORSConfig))

	rateLimiter := middleware.NewRateLimiter(config.RateLimiter)
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)

	// Public routes
	r.userH.RegisterPublicRoutes(api)
	r.doctorH.RegisterPublicRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.userH.RegisterProtectedRoutes(protected)
	r.doctorH.RegisterProtectedRoutes(protected)
	r.appointmentH.RegisterRoutes(protected)

	admins := protected.Group("")
	admins.Use(r.auth.RequireRole(model.RoleAdmin))
	r.adminH.RegisterRoutes(admins)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}

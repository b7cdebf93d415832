package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medbook/booking-api/internal/config"
	adminHandler "github.com/medbook/booking-api/internal/handler/admin"
	appointmentHandler "github.com/medbook/booking-api/internal/handler/appointment"
	doctorHandler "github.com/medbook/booking-api/internal/handler/doctor"
	healthHandler "github.com/medbook/booking-api/internal/handler/health"
	userHandler "github.com/medbook/booking-api/internal/handler/user"
	"github.com/medbook/booking-api/internal/middleware"
	"github.com/medbook/booking-api/internal/repository/postgres"
	"github.com/medbook/booking-api/internal/router"
	appointmentService "github.com/medbook/booking-api/internal/service/appointment"
	authService "github.com/medbook/booking-api/internal/service/auth"
	doctorService "github.com/medbook/booking-api/internal/service/doctor"
	notificationService "github.com/medbook/booking-api/internal/service/notification"
	userService "github.com/medbook/booking-api/internal/service/user"
	"github.com/medbook/booking-api/pkg/auth"
	"github.com/medbook/booking-api/pkg/messaging/redis"
	"github.com/medbook/booking-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{URL: cfg.Redis.URL}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	hasher := security.NewBcryptHasher(0)
	authSvc := authService.NewService(userRepo, jwtSvc, hasher)
	notifSvc := notificationService.NewService(notificationRepo, outboxRepo, broker)
	appointmentSvc := appointmentService.NewService(appointmentRepo, userRepo, notifSvc)
	doctorSvc := doctorService.NewService(userRepo)
	userSvc := userService.NewService(userRepo)

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(authSvc)
	userH := userHandler.NewHandler(authSvc, userSvc, notifSvc)
	doctorH := doctorHandler.NewHandler(authSvc, doctorSvc, appointmentSvc)
	appointmentH := appointmentHandler.NewHandler(appointmentSvc)
	adminH := adminHandler.NewHandler(doctorSvc)
	healthH := healthHandler.NewHandler(db)

	routerCfg := router.DefaultConfig()
	if cfg.Server.TimeoutSeconds > 0 {
		routerCfg.Timeout = time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	}

	r := router.NewRouter(authMiddleware, userH, doctorH, appointmentH, adminH, healthH, routerCfg)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}

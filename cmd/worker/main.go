package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/medbook/booking-api/internal/config"
	"github.com/medbook/booking-api/internal/email"
	"github.com/medbook/booking-api/internal/repository/postgres"
	"github.com/medbook/booking-api/pkg/logger"
	"github.com/medbook/booking-api/pkg/messaging/redis"
	"github.com/medbook/booking-api/pkg/metrics"
	"github.com/medbook/booking-api/pkg/worker"
)

// WorkerConfig is read from the environment on top of the shared config file.
type WorkerConfig struct {
	BatchSize        int           `envconfig:"WORKER_BATCH_SIZE" default:"100"`
	PollInterval     time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"5s"`
	RetryAttempts    int           `envconfig:"WORKER_RETRY_ATTEMPTS" default:"3"`
	RetryDelay       time.Duration `envconfig:"WORKER_RETRY_DELAY" default:"5s"`
	PurgeInterval    time.Duration `envconfig:"WORKER_PURGE_INTERVAL" default:"1h"`
	PurgeRetention   time.Duration `envconfig:"WORKER_PURGE_RETENTION" default:"168h"`
	HealthListenAddr string        `envconfig:"WORKER_HEALTH_ADDR" default:":8081"`
}

func setupHealthCheck(addr string, lg *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			lg.Fatal(err, "Health check server failed")
		}
	}()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	var workerCfg WorkerConfig
	if err := envconfig.Process("", &workerCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to load worker config")
	}

	lg := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		lg.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{URL: cfg.Redis.URL}, &log.Logger)
	if err != nil {
		lg.Fatal(err, "Failed to create Redis broker")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)
	userRepo := postgres.NewUserRepository(db)

	emailSvc := email.NewService(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	dispatcher := worker.NewDispatcher(
		outboxRepo,
		userRepo,
		broker,
		emailSvc,
		worker.DispatcherConfig{
			BatchSize:     workerCfg.BatchSize,
			PollInterval:  workerCfg.PollInterval,
			RetryAttempts: workerCfg.RetryAttempts,
			RetryDelay:    workerCfg.RetryDelay,
		},
		lg,
		metrics.NewMetrics("booking", "dispatcher"),
	)

	setupHealthCheck(workerCfg.HealthListenAddr, lg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		lg.Info("Shutting down...")
		cancel()
	}()

	// Periodic purge of delivered events.
	go func() {
		ticker := time.NewTicker(workerCfg.PurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				dispatcher.Purge(ctx, workerCfg.PurgeRetention)
			}
		}
	}()

	dispatcher.Start(ctx)
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/carelink/carelink-api/internal/config"
	"github.com/carelink/carelink-api/internal/handler"
	appointmentHandler "github.com/carelink/carelink-api/internal/handler/appointment"
	authHandler "github.com/carelink/carelink-api/internal/handler/auth"
	doctorHandler "github.com/carelink/carelink-api/internal/handler/doctor"
	labreportHandler "github.com/carelink/carelink-api/internal/handler/labreport"
	patientHandler "github.com/carelink/carelink-api/internal/handler/patient"
	prescriptionHandler "github.com/carelink/carelink-api/internal/handler/prescription"
	"github.com/carelink/carelink-api/internal/middleware"
	"github.com/carelink/carelink-api/internal/model"
	"github.com/carelink/carelink-api/internal/repository/postgres"
	redisrepo "github.com/carelink/carelink-api/internal/repository/redis"
	"github.com/carelink/carelink-api/internal/router"
	"github.com/carelink/carelink-api/internal/service/access"
	assignmentService "github.com/carelink/carelink-api/internal/service/assignment"
	authService "github.com/carelink/carelink-api/internal/service/auth"
	doctorService "github.com/carelink/carelink-api/internal/service/doctor"
	historyService "github.com/carelink/carelink-api/internal/service/history"
	labreportService "github.com/carelink/carelink-api/internal/service/labreport"
	patientService "github.com/carelink/carelink-api/internal/service/patient"
	prescriptionService "github.com/carelink/carelink-api/internal/service/prescription"
	schedulingService "github.com/carelink/carelink-api/internal/service/scheduling"
	pkgauth "github.com/carelink/carelink-api/pkg/auth"
	"github.com/carelink/carelink-api/pkg/logger"
	"github.com/carelink/carelink-api/pkg/metrics"
	"github.com/carelink/carelink-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	appLogger := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Pretty:     cfg.Log.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	revoker, err := redisrepo.NewTokenRevoker(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}

	m := metrics.NewMetrics("carelink", "api")

	userRepo := postgres.NewUserRepository(db)
	assignmentRepo := postgres.NewAssignmentRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	prescriptionRepo := postgres.NewPrescriptionRepository(db)
	labReportRepo := postgres.NewLabReportRepository(db)
	historyRepo := postgres.NewMedicalHistoryRepository(db)
	doctorProfileRepo := postgres.NewDoctorProfileRepository(db)
	patientProfileRepo := postgres.NewPatientProfileRepository(db)

	engine := access.NewEngine(assignmentRepo, m)

	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)
	jwtSvc := pkgauth.NewJWTService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.Expiry(),
		cfg.JWT.RefreshExpiry(),
	)

	authSvc := authService.NewService(userRepo, hasher, jwtSvc, revoker, appLogger)
	assignmentSvc := assignmentService.NewService(assignmentRepo, userRepo, m)
	schedulingSvc := schedulingService.NewService(appointmentRepo, engine, schedulingService.Config{
		DayStart:               cfg.Scheduling.DayStart,
		DayEnd:                 cfg.Scheduling.DayEnd,
		SlotMinutes:            cfg.Scheduling.SlotMinutes,
		DefaultDurationMinutes: cfg.Scheduling.DefaultDurationMinutes,
	}, m)
	prescriptionSvc := prescriptionService.NewService(prescriptionRepo, engine)
	labReportSvc := labreportService.NewService(labReportRepo, engine)
	historySvc := historyService.NewService(historyRepo, engine)
	doctorSvc := doctorService.NewService(doctorProfileRepo, userRepo, cfg.Cache.DirectoryTTL)
	patientSvc := patientService.NewService(patientProfileRepo, engine)

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc, revoker, userRepo)

	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		handler.NewHandler(db),
		router.Config{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			CORSConfig:       middleware.DefaultCORSConfig(),
			MetricsPrefix:    "carelink",
		},
		appointmentHandler.NewHandler(schedulingSvc),
		doctorHandler.NewHandler(doctorSvc, assignmentSvc, authMiddleware.RequireRole(model.RoleDoctor)),
		patientHandler.NewHandler(patientSvc, historySvc),
		prescriptionHandler.NewHandler(prescriptionSvc),
		labreportHandler.NewHandler(labReportSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
